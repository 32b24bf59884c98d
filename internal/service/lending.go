package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/events"
	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
	"github.com/Skotchmaster/library/internal/util"
	"github.com/Skotchmaster/library/pkg/logging"
)

const (
	DefaultLoanPeriod = 7 * 24 * time.Hour
	// MaxLoanDays keeps day counts far from time.Duration overflow.
	MaxLoanDays = 3650
)

type LendingService struct {
	Repo       *repo.GormRepo
	Authz      *Authorizer
	Events     events.Publisher
	LoanPeriod time.Duration
	Now        func() time.Time
}

func (s *LendingService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *LendingService) loanPeriod() time.Duration {
	if s.LoanPeriod > 0 {
		return s.LoanPeriod
	}
	return DefaultLoanPeriod
}

// inTx runs fn in one transaction, retrying once on lock contention.
func (s *LendingService) inTx(ctx context.Context, fn func(tx *repo.GormRepo) error) error {
	err := s.Repo.Transaction(ctx, fn)
	if !repo.IsTransient(err) {
		return err
	}
	logging.FromContext(ctx).Warn("tx_retry", "error", err)
	err = s.Repo.Transaction(ctx, fn)
	if repo.IsTransient(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func (s *LendingService) RequestBook(ctx context.Context, caller Identity, bookID uint) (*models.BookRequest, error) {
	user, err := s.Authz.Caller(ctx, caller)
	if err != nil {
		return nil, err
	}

	var req *models.BookRequest
	err = s.inTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetBook(ctx, bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: book %d", ErrNotFound, bookID)
			}
			return err
		}
		pending, err := tx.HasPendingRequest(ctx, user.ID, bookID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicateRequest
		}
		req = &models.BookRequest{
			UserID:      user.ID,
			BookID:      bookID,
			RequestDate: s.now(),
			Status:      models.RequestPending,
		}
		if err := tx.CreateRequest(ctx, req); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrDuplicateRequest
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type: events.BookRequested,
		Key:  user.Username,
		Data: map[string]any{"request_id": req.ID, "book_id": bookID},
	})
	return req, nil
}

// ApproveRequest moves a pending request to issued and creates its Loan
// in the same transaction.
func (s *LendingService) ApproveRequest(ctx context.Context, caller Identity, requestID uint) (*models.Loan, error) {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return nil, err
	}

	var loan *models.Loan
	err := s.inTx(ctx, func(tx *repo.GormRepo) error {
		req, err := tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, requestID)
			}
			return err
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("%w: request is %s", ErrInvalidTransition, req.Status)
		}
		moved, err := tx.TransitionRequest(ctx, req.ID, models.RequestPending, models.RequestIssued)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: request no longer pending", ErrInvalidTransition)
		}

		active, err := tx.HasActiveLoan(ctx, req.UserID, req.BookID)
		if err != nil {
			return err
		}
		if active {
			return ErrDuplicateLoan
		}

		now := s.now()
		reqID := req.ID
		loan = &models.Loan{
			UserID:     req.UserID,
			BookID:     req.BookID,
			RequestID:  &reqID,
			IssuedDate: now,
			ExpiryDate: now.Add(s.loanPeriod()),
			Status:     models.LoanIssued,
		}
		if err := tx.CreateLoan(ctx, loan); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrDuplicateLoan
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type: events.RequestApproved,
		Key:  caller.Username,
		Data: map[string]any{"request_id": requestID, "loan_id": loan.ID, "user_id": loan.UserID, "book_id": loan.BookID},
	})
	return loan, nil
}

func (s *LendingService) DenyRequest(ctx context.Context, caller Identity, requestID uint) (*models.BookRequest, error) {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return nil, err
	}

	var req *models.BookRequest
	err := s.inTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		req, err = tx.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, requestID)
			}
			return err
		}
		if req.Status != models.RequestPending {
			return fmt.Errorf("%w: request is %s", ErrInvalidTransition, req.Status)
		}
		moved, err := tx.TransitionRequest(ctx, req.ID, models.RequestPending, models.RequestDenied)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("%w: request no longer pending", ErrInvalidTransition)
		}
		req.Status = models.RequestDenied
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type: events.RequestDenied,
		Key:  caller.Username,
		Data: map[string]any{"request_id": req.ID, "user_id": req.UserID, "book_id": req.BookID},
	})
	return req, nil
}

// IssueBookDirectly creates a loan without a request. days <= 0 falls
// back to the configured loan period.
func (s *LendingService) IssueBookDirectly(ctx context.Context, caller Identity, userID, bookID uint, days int) (*models.Loan, error) {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return nil, err
	}
	if bookID == 0 {
		return nil, fmt.Errorf("%w: book_id", ErrMissingField)
	}
	if days < 0 || days > MaxLoanDays {
		return nil, fmt.Errorf("%w: days_to_issue must be between 1 and %d", ErrValidation, MaxLoanDays)
	}
	period := s.loanPeriod()
	if days > 0 {
		period = time.Duration(days) * 24 * time.Hour
	}

	var loan *models.Loan
	err := s.inTx(ctx, func(tx *repo.GormRepo) error {
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		if _, err := tx.GetBook(ctx, bookID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: book %d", ErrNotFound, bookID)
			}
			return err
		}
		active, err := tx.HasActiveLoan(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if active {
			return ErrDuplicateLoan
		}

		now := s.now()
		loan = &models.Loan{
			UserID:     userID,
			BookID:     bookID,
			IssuedDate: now,
			ExpiryDate: now.Add(period),
			Status:     models.LoanIssued,
		}
		if err := tx.CreateLoan(ctx, loan); err != nil {
			if repo.IsUniqueViolation(err) {
				return ErrDuplicateLoan
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type: events.BookIssued,
		Key:  caller.Username,
		Data: map[string]any{"loan_id": loan.ID, "user_id": userID, "book_id": bookID, "expiry_date": loan.ExpiryDate},
	})
	return loan, nil
}

// ReturnBook closes the active loan for (userID, bookID). The owner or a
// librarian may return.
func (s *LendingService) ReturnBook(ctx context.Context, caller Identity, userID, bookID uint) (*models.Loan, error) {
	if _, err := s.Authz.CheckOwnerOr(ctx, caller, userID, models.RoleLibrarian); err != nil {
		return nil, err
	}

	var loan *models.Loan
	err := s.inTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		loan, err = tx.FindActiveLoanForUpdate(ctx, userID, bookID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			latest, lerr := tx.FindLatestLoan(ctx, userID, bookID)
			if lerr == nil && latest.Status == models.LoanReturned {
				return ErrAlreadyReturned
			}
			if lerr != nil && !errors.Is(lerr, gorm.ErrRecordNotFound) {
				return lerr
			}
			return fmt.Errorf("%w: no loan for user %d book %d", ErrNotFound, userID, bookID)
		}
		if err != nil {
			return err
		}

		now := s.now()
		closed, err := tx.MarkLoanReturned(ctx, loan.ID, now)
		if err != nil {
			return err
		}
		if !closed {
			return ErrAlreadyReturned
		}
		loan.Status = models.LoanReturned
		loan.ReturnDate = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.Event{
		Type: events.BookReturned,
		Key:  caller.Username,
		Data: map[string]any{"loan_id": loan.ID, "user_id": userID, "book_id": bookID},
	})
	return loan, nil
}

// RevokeLoan hard-deletes the active loan for the pair, or the latest
// record when none is active.
func (s *LendingService) RevokeLoan(ctx context.Context, caller Identity, userID, bookID uint) error {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return err
	}

	var loanID uint
	err := s.inTx(ctx, func(tx *repo.GormRepo) error {
		loan, err := tx.FindActiveLoanForUpdate(ctx, userID, bookID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			loan, err = tx.FindLatestLoan(ctx, userID, bookID)
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no loan for user %d book %d", ErrNotFound, userID, bookID)
			}
			return err
		}
		loanID = loan.ID
		return tx.DeleteLoan(ctx, loan.ID)
	})
	if err != nil {
		return err
	}

	publish(ctx, s.Events, events.Event{
		Type: events.LoanRevoked,
		Key:  caller.Username,
		Data: map[string]any{"loan_id": loanID, "user_id": userID, "book_id": bookID},
	})
	return nil
}

func (s *LendingService) ListPending(ctx context.Context, caller Identity, page util.Page) ([]models.BookRequest, error) {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return nil, err
	}
	return s.Repo.ListRequestsByStatus(ctx, models.RequestPending, page)
}

func (s *LendingService) ListMyRequests(ctx context.Context, caller Identity) ([]models.BookRequest, error) {
	user, err := s.Authz.Caller(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListUserRequests(ctx, user.ID)
}

type StatusCounts struct {
	Issued  int64
	Denied  int64
	Pending int64
}

func (s *LendingService) StatusCounts(ctx context.Context, caller Identity) (StatusCounts, error) {
	if _, err := s.Authz.Caller(ctx, caller); err != nil {
		return StatusCounts{}, err
	}
	counts, err := s.Repo.RequestStatusCounts(ctx)
	if err != nil {
		return StatusCounts{}, err
	}
	return StatusCounts{
		Issued:  counts[models.RequestIssued],
		Denied:  counts[models.RequestDenied],
		Pending: counts[models.RequestPending],
	}, nil
}

// ListUserLoans returns a user's loans. The owner or a librarian may read.
func (s *LendingService) ListUserLoans(ctx context.Context, caller Identity, userID uint) ([]models.Loan, error) {
	if _, err := s.Authz.CheckOwnerOr(ctx, caller, userID, models.RoleLibrarian); err != nil {
		return nil, err
	}
	return s.Repo.ListUserLoans(ctx, userID)
}

// Clock exposes the service clock for derived fields such as overdue.
func (s *LendingService) Clock() time.Time { return s.now() }
