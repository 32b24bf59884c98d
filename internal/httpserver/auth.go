package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/internal/transport"
	"github.com/Skotchmaster/library/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_successful", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User Registered Successfully"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(CreateCookie(accessCookie, res.Access.Token, "/", res.Access.ExpiresAt))
	c.SetCookie(CreateCookie(refreshCookie, res.Refresh.Token, "/", res.Refresh.ExpiresAt))
	l.Info("login_successful", "user_id", res.User.ID)

	return c.JSON(http.StatusOK, transport.LoginResponse{
		Message: "Logged In",
		Tokens: transport.TokenPair{
			Access:  res.Access.Token,
			Refresh: res.Refresh.Token,
		},
	})
}

// Logout revokes the access token that authenticated the call. A POST
// body may also carry the refresh token to revoke; the refreshToken
// cookie is used otherwise.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.LogoutRequest
	if c.Request().Method == http.MethodPost && c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return badRequest(l, "logout_error", "invalid body", err)
		}
	}
	if req.RefreshToken == "" {
		if ck, err := c.Cookie(refreshCookie); err == nil {
			req.RefreshToken = ck.Value
		}
	}

	if err := h.Svc.Logout(ctx, identity(c), rawToken(c), req.RefreshToken); err != nil {
		return fail(l, "logout_failed", err)
	}

	c.SetCookie(DeleteCookie(accessCookie, "/"))
	c.SetCookie(DeleteCookie(refreshCookie, "/"))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged Out Successfully"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw := bearerToken(c, refreshCookie)
	if raw == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	access, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return fail(l, "refresh_error", err)
	}

	c.SetCookie(CreateCookie(accessCookie, access.Token, "/", access.ExpiresAt))
	return c.JSON(http.StatusOK, transport.RefreshResponse{AccessToken: access.Token})
}

func (h *AuthHTTP) WhoAmI(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.whoami")

	user, err := h.Svc.WhoAmI(ctx, identity(c))
	if err != nil {
		return fail(l, "whoami_error", err)
	}
	return c.JSON(http.StatusOK, transport.WhoAmIResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		RoleID:   user.RoleID,
	})
}
