package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/pkg/logging"
	loggingmw "github.com/Skotchmaster/library/pkg/middleware/logging"
)

const (
	ctxIdentity = "identity"
	ctxToken    = "token"
)

// BearerAuth resolves the access token (Authorization header, then the
// accessToken cookie) into a service.Identity. Role checks happen in the
// services.
type BearerAuth struct {
	Tokens *service.TokenService
}

func NewBearerAuth(tokens *service.TokenService) *BearerAuth {
	return &BearerAuth{Tokens: tokens}
}

func bearerToken(c echo.Context, cookieName string) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if ck, err := c.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "bearer_auth")

		raw := bearerToken(c, accessCookie)
		if raw == "" {
			l.Warn("auth_error", "status", 401, "reason", "missing access token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		id, err := m.Tokens.ResolveIdentity(ctx, raw)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				c.SetCookie(DeleteCookie(accessCookie, "/"))
			}
			return fail(l, "auth_error", err)
		}

		c.Set(ctxIdentity, id)
		c.Set(ctxToken, raw)
		c.Set(loggingmw.UserKey, id.Username)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, logging.FromContext(ctx).With("user", id.Username))))
		return next(c)
	}
}

func identity(c echo.Context) service.Identity {
	id, _ := c.Get(ctxIdentity).(service.Identity)
	return id
}

func rawToken(c echo.Context) string {
	s, _ := c.Get(ctxToken).(string)
	return s
}
