package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/library/pkg/logging"
)

func serve(t *testing.T, level string, h echo.HandlerFunc, path string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, level)))
	e.GET(path, h)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if buf.Len() == 0 {
		return nil, rec
	}
	var line map[string]any
	require.NoError(t, json.NewDecoder(&buf).Decode(&line))
	return line, rec
}

func TestRequestLogger_Success(t *testing.T) {
	line, rec := serve(t, "info", func(c echo.Context) error {
		c.Set(UserKey, "alice")
		logging.FromContext(c.Request().Context()).Info("inner")
		return c.String(http.StatusOK, "ok")
	}, "/whoami")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))
	require.NotNil(t, line)
	// the first line is the handler's own, carrying the request attributes
	assert.Equal(t, "inner", line["msg"])
	assert.Equal(t, "rid-1", line["request_id"])
}

func TestRequestLogger_ErrorIsRendered(t *testing.T) {
	line, rec := serve(t, "info", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "Unauthorized access")
	}, "/request")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, line)
	assert.Equal(t, "http_request", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.EqualValues(t, 403, line["status"])
}

func TestRequestLogger_HealthAtDebug(t *testing.T) {
	line, rec := serve(t, "info", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, "/health/live")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, line)
}
