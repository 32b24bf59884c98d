package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	LendingHandler  *LendingHTTP
	FeedbackHandler *FeedbackHTTP
	UserHandler     *UserHTTP
	Auth            *BearerAuth
	// LoginRateLimit is requests per second per client IP on /login and
	// /register. Zero disables throttling.
	LoginRateLimit float64
	Ready          func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	var throttle []echo.MiddlewareFunc
	if d.LoginRateLimit > 0 {
		store := echomw.NewRateLimiterMemoryStore(rate.Limit(d.LoginRateLimit))
		throttle = append(throttle, echomw.RateLimiter(store))
	}
	e.POST("/register", d.AuthHandler.Register, throttle...)
	e.POST("/login", d.AuthHandler.Login, throttle...)
	e.GET("/refresh", d.AuthHandler.Refresh)

	private := e.Group("", d.Auth.RequireAuth)
	private.GET("/logout", d.AuthHandler.Logout)
	private.POST("/logout", d.AuthHandler.Logout)
	private.GET("/whoami", d.AuthHandler.WhoAmI)

	requests := private.Group("/request")
	requests.GET("", d.LendingHandler.ListPending)
	requests.GET("/view", d.LendingHandler.ViewMyRequests)
	requests.POST("/make/:bookId", d.LendingHandler.RequestBook)
	requests.POST("/approve/:id", d.LendingHandler.ApproveRequest)
	requests.POST("/deny/:id", d.LendingHandler.DenyRequest)
	private.GET("/book_requests/status_counts", d.LendingHandler.StatusCounts)

	private.GET("/users/all", d.UserHandler.List)
	private.GET("/users/:id", d.UserHandler.Get)
	private.GET("/analytics/user-login-activity", d.UserHandler.LoginActivity)

	users := private.Group("/users/:id/books")
	users.GET("", d.LendingHandler.ListUserLoans)
	users.POST("", d.LendingHandler.IssueBook)
	users.PUT("/:bookId", d.LendingHandler.ReturnBook)
	users.DELETE("/:bookId", d.LendingHandler.RevokeLoan)

	feedback := private.Group("/feedback/users/:uid/books/:bid/feedbacks")
	feedback.GET("", d.FeedbackHandler.List)
	feedback.POST("", d.FeedbackHandler.Submit)
	feedback.GET("/:fid", d.FeedbackHandler.Get)
	feedback.PUT("/:fid", d.FeedbackHandler.Update)
}
