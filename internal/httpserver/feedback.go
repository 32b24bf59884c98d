package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/internal/transport"
	"github.com/Skotchmaster/library/pkg/logging"
)

type FeedbackHTTP struct {
	Svc *service.FeedbackService
}

func pairParams(c echo.Context) (userID, bookID uint, err error) {
	if userID, err = uintParam(c, "uid"); err != nil {
		return 0, 0, err
	}
	if bookID, err = uintParam(c, "bid"); err != nil {
		return 0, 0, err
	}
	return userID, bookID, nil
}

func (h *FeedbackHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.submit")

	userID, bookID, err := pairParams(c)
	if err != nil {
		return badRequest(l, "submit_feedback_error", "invalid path", err)
	}
	var req transport.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "submit_feedback_error", "invalid body", err)
	}

	fb, err := h.Svc.Submit(ctx, identity(c), userID, bookID, service.FeedbackInput{Rating: req.Rating, Comments: req.Comments})
	if err != nil {
		return fail(l, "submit_feedback_error", err)
	}

	l.Info("submit_feedback_success", "feedback_id", fb.ID)
	return c.JSON(http.StatusCreated, transport.MessageResponse{Message: "Feedback submitted successfully"})
}

func (h *FeedbackHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.list")

	userID, bookID, err := pairParams(c)
	if err != nil {
		return badRequest(l, "list_feedback_error", "invalid path", err)
	}

	items, err := h.Svc.List(ctx, identity(c), userID, bookID)
	if err != nil {
		return fail(l, "list_feedback_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *FeedbackHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.get")

	userID, bookID, err := pairParams(c)
	if err != nil {
		return badRequest(l, "get_feedback_error", "invalid path", err)
	}
	fid, err := uintParam(c, "fid")
	if err != nil {
		return badRequest(l, "get_feedback_error", "invalid feedback id", err)
	}

	fb, err := h.Svc.Get(ctx, identity(c), userID, bookID, fid)
	if err != nil {
		return fail(l, "get_feedback_error", err)
	}
	return c.JSON(http.StatusOK, fb)
}

func (h *FeedbackHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.update")

	userID, bookID, err := pairParams(c)
	if err != nil {
		return badRequest(l, "update_feedback_error", "invalid path", err)
	}
	fid, err := uintParam(c, "fid")
	if err != nil {
		return badRequest(l, "update_feedback_error", "invalid feedback id", err)
	}
	var req transport.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_feedback_error", "invalid body", err)
	}

	if _, err := h.Svc.Update(ctx, identity(c), userID, bookID, fid, service.FeedbackInput{Rating: req.Rating, Comments: req.Comments}); err != nil {
		return fail(l, "update_feedback_error", err)
	}

	l.Info("update_feedback_success", "feedback_id", fid)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Feedback updated successfully"})
}
