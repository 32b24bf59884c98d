package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/library/internal/service"
)

// statusFor maps service errors onto HTTP codes and client messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingField):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrBadCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, service.ErrExpiredToken):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, service.ErrRevokedToken):
		return http.StatusUnauthorized, "token revoked"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Unauthorized access"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, "Username already taken"
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusBadRequest, "You have already requested this book."
	case errors.Is(err, service.ErrDuplicateLoan):
		return http.StatusConflict, "Book already issued to this user"
	case errors.Is(err, service.ErrAlreadyReturned):
		return http.StatusConflict, "Book already returned"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict, try again"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusBadRequest, "Request is no longer pending"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func fail(l *slog.Logger, event string, err error) error {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(v), nil
}
