package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/internal/transport"
	"github.com/Skotchmaster/library/internal/util"
	"github.com/Skotchmaster/library/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func userItem(u models.User) transport.UserItem {
	return transport.UserItem{ID: u.ID, Username: u.Username, Email: u.Email, RoleID: u.RoleID}
}

// List is always paged: page defaults to 1, per_page to 10.
func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	page := c.QueryParam("page")
	if page == "" {
		page = "1"
	}
	users, err := h.Svc.List(ctx, identity(c), util.FromQuery(page, c.QueryParam("per_page")))
	if err != nil {
		return fail(l, "list_users_error", err)
	}

	out := make([]transport.UserItem, 0, len(users))
	for _, u := range users {
		out = append(out, userItem(u))
	}
	return c.JSON(http.StatusOK, transport.UsersResponse{Users: out})
}

func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")

	userID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "get_user_error", "invalid user id", err)
	}

	u, err := h.Svc.Get(ctx, identity(c), userID)
	if err != nil {
		return fail(l, "get_user_error", err)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{User: userItem(*u)})
}

func (h *UserHTTP) LoginActivity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "analytics.login_activity")

	from, err := dateParam(c, "start_date", false)
	if err != nil {
		return badRequest(l, "login_activity_error", "invalid start_date", err)
	}
	to, err := dateParam(c, "end_date", true)
	if err != nil {
		return badRequest(l, "login_activity_error", "invalid end_date", err)
	}

	users, err := h.Svc.LoginActivity(ctx, identity(c), from, to)
	if err != nil {
		return fail(l, "login_activity_error", err)
	}

	out := make([]transport.LoginActivityItem, 0, len(users))
	for _, u := range users {
		out = append(out, transport.LoginActivityItem{Username: u.Username, LoginTime: u.LastLoggedIn})
	}
	return c.JSON(http.StatusOK, out)
}

// dateParam accepts RFC 3339 or a plain date. A plain end date covers
// the whole day. Absent values are zero.
func dateParam(c echo.Context, name string, endOfDay bool) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(transport.DateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}
