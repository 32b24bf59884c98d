package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/internal/transport"
	"github.com/Skotchmaster/library/internal/util"
	"github.com/Skotchmaster/library/pkg/logging"
)

type LendingHTTP struct {
	Svc *service.LendingService
}

func (h *LendingHTTP) RequestBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.request_book")

	bookID, err := uintParam(c, "bookId")
	if err != nil {
		return badRequest(l, "request_book_error", "invalid book id", err)
	}

	req, err := h.Svc.RequestBook(ctx, identity(c), bookID)
	if err != nil {
		return fail(l, "request_book_error", err)
	}

	l.Info("request_book_success", "request_id", req.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Book request submitted successfully."})
}

func (h *LendingHTTP) ApproveRequest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.approve_request")

	requestID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "approve_request_error", "invalid request id", err)
	}

	loan, err := h.Svc.ApproveRequest(ctx, identity(c), requestID)
	if err != nil {
		return fail(l, "approve_request_error", err)
	}

	l.Info("approve_request_success", "request_id", requestID, "loan_id", loan.ID)
	return c.JSON(http.StatusOK, transport.StatusMessage{
		Message: "Request approved and book issued successfully!",
		Status:  "success",
	})
}

func (h *LendingHTTP) DenyRequest(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.deny_request")

	requestID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "deny_request_error", "invalid request id", err)
	}

	if _, err := h.Svc.DenyRequest(ctx, identity(c), requestID); err != nil {
		return fail(l, "deny_request_error", err)
	}

	l.Info("deny_request_success", "request_id", requestID)
	return c.JSON(http.StatusOK, transport.StatusMessage{
		Message: "Request denied successfully!",
		Status:  "success",
	})
}

func (h *LendingHTTP) ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.list_pending")

	reqs, err := h.Svc.ListPending(ctx, identity(c), util.FromQuery(c.QueryParam("page"), c.QueryParam("size")))
	if err != nil {
		return fail(l, "list_pending_error", err)
	}

	out := make([]transport.PendingRequestItem, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, transport.PendingRequestItem{
			ID:     r.ID,
			UserID: r.UserID,
			BookID: r.BookID,
			Status: string(r.Status),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LendingHTTP) ViewMyRequests(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.view_requests")

	reqs, err := h.Svc.ListMyRequests(ctx, identity(c))
	if err != nil {
		return fail(l, "view_requests_error", err)
	}

	out := make([]transport.MyRequestItem, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, transport.MyRequestItem{BookName: r.Book.Name, Status: string(r.Status)})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LendingHTTP) StatusCounts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.status_counts")

	counts, err := h.Svc.StatusCounts(ctx, identity(c))
	if err != nil {
		return fail(l, "status_counts_error", err)
	}
	return c.JSON(http.StatusOK, transport.StatusCountsResponse{
		IssuedCount:  counts.Issued,
		DeniedCount:  counts.Denied,
		PendingCount: counts.Pending,
	})
}

func (h *LendingHTTP) ListUserLoans(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.list_user_loans")

	userID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "list_user_loans_error", "invalid user id", err)
	}

	loans, err := h.Svc.ListUserLoans(ctx, identity(c), userID)
	if err != nil {
		return fail(l, "list_user_loans_error", err)
	}

	now := h.Svc.Clock()
	out := make([]transport.LoanItem, 0, len(loans))
	for _, ln := range loans {
		out = append(out, transport.LoanItem{
			UserID:     ln.UserID,
			BookID:     ln.BookID,
			BookName:   ln.Book.Name,
			IssuedDate: ln.IssuedDate,
			ReturnDate: ln.ReturnDate,
			ExpiryDate: ln.ExpiryDate,
			Status:     string(ln.Status),
			Overdue:    ln.Overdue(now),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LendingHTTP) IssueBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.issue_book")

	userID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "issue_book_error", "invalid user id", err)
	}

	var req transport.IssueBookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "issue_book_error", "invalid body", err)
	}
	if req.BookID == 0 || req.DaysToIssue == 0 {
		return badRequest(l, "issue_book_error", "Missing required fields", nil)
	}

	loan, err := h.Svc.IssueBookDirectly(ctx, identity(c), userID, req.BookID, req.DaysToIssue)
	if err != nil {
		return fail(l, "issue_book_error", err)
	}

	l.Info("issue_book_success", "loan_id", loan.ID)
	return c.JSON(http.StatusCreated, transport.IssueBookResponse{
		Message:    "Book issued successfully",
		ExpiryDate: loan.ExpiryDate.Format(transport.DateLayout),
	})
}

func (h *LendingHTTP) ReturnBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.return_book")

	userID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "return_book_error", "invalid user id", err)
	}
	bookID, err := uintParam(c, "bookId")
	if err != nil {
		return badRequest(l, "return_book_error", "invalid book id", err)
	}

	if _, err := h.Svc.ReturnBook(ctx, identity(c), userID, bookID); err != nil {
		return fail(l, "return_book_error", err)
	}

	l.Info("return_book_success", "user_id", userID, "book_id", bookID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Book returned successfully"})
}

func (h *LendingHTTP) RevokeLoan(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "lending.revoke_loan")

	userID, err := uintParam(c, "id")
	if err != nil {
		return badRequest(l, "revoke_loan_error", "invalid user id", err)
	}
	bookID, err := uintParam(c, "bookId")
	if err != nil {
		return badRequest(l, "revoke_loan_error", "invalid book id", err)
	}

	if err := h.Svc.RevokeLoan(ctx, identity(c), userID, bookID); err != nil {
		return fail(l, "revoke_loan_error", err)
	}

	l.Info("revoke_loan_success", "user_id", userID, "book_id", bookID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Book access revoked successfully"})
}
