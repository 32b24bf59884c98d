package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/events"
	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
)

const (
	MinRating = 1
	MaxRating = 5
)

// FeedbackInput carries optional fields; nil means absent.
type FeedbackInput struct {
	Rating   *int
	Comments *string
}

type FeedbackService struct {
	Repo   *repo.GormRepo
	Authz  *Authorizer
	Events events.Publisher
	Now    func() time.Time
}

func (s *FeedbackService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validRating(r int) error {
	if r < MinRating || r > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	return nil
}

// Submit attaches feedback to a (user, book) pair that has a loan in any
// status. Only that user may submit.
func (s *FeedbackService) Submit(ctx context.Context, caller Identity, userID, bookID uint, in FeedbackInput) (*models.Feedback, error) {
	user, err := s.Authz.Caller(ctx, caller)
	if err != nil {
		return nil, err
	}
	if user.ID != userID {
		return nil, fmt.Errorf("%w: feedback belongs to another user", ErrForbidden)
	}

	if in.Rating == nil || *in.Rating == 0 {
		return nil, fmt.Errorf("%w: rating", ErrMissingField)
	}
	if in.Comments == nil || strings.TrimSpace(*in.Comments) == "" {
		return nil, fmt.Errorf("%w: comments", ErrMissingField)
	}
	if err := validRating(*in.Rating); err != nil {
		return nil, err
	}

	if _, err := s.Repo.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book %d", ErrNotFound, bookID)
		}
		return nil, err
	}
	hasLoan, err := s.Repo.LoanExists(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if !hasLoan {
		return nil, fmt.Errorf("%w: no loan for this book", ErrValidation)
	}

	fb := &models.Feedback{
		UserID:        userID,
		BookID:        bookID,
		Rating:        *in.Rating,
		Comments:      strings.TrimSpace(*in.Comments),
		DateSubmitted: s.now(),
	}
	if err := s.Repo.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	publish(ctx, s.Events, events.Event{
		Type: events.FeedbackSubmitted,
		Key:  user.Username,
		Data: map[string]any{"feedback_id": fb.ID, "book_id": bookID, "rating": fb.Rating},
	})
	return fb, nil
}

// Update changes rating and/or comments. Only the submitter may update.
func (s *FeedbackService) Update(ctx context.Context, caller Identity, userID, bookID, feedbackID uint, in FeedbackInput) (*models.Feedback, error) {
	user, err := s.Authz.Caller(ctx, caller)
	if err != nil {
		return nil, err
	}

	fb, err := s.Repo.GetFeedback(ctx, userID, bookID, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: feedback %d", ErrNotFound, feedbackID)
		}
		return nil, err
	}
	if fb.UserID != user.ID {
		return nil, fmt.Errorf("%w: not the submitter", ErrForbidden)
	}

	if in.Rating != nil {
		if err := validRating(*in.Rating); err != nil {
			return nil, err
		}
		fb.Rating = *in.Rating
	}
	if in.Comments != nil {
		c := strings.TrimSpace(*in.Comments)
		if c == "" {
			return nil, fmt.Errorf("%w: comments", ErrMissingField)
		}
		fb.Comments = c
	}
	fb.DateSubmitted = s.now()

	if err := s.Repo.SaveFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}

	publish(ctx, s.Events, events.Event{
		Type: events.FeedbackUpdated,
		Key:  user.Username,
		Data: map[string]any{"feedback_id": fb.ID, "book_id": bookID, "rating": fb.Rating},
	})
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, caller Identity, userID, bookID uint) ([]models.Feedback, error) {
	if _, err := s.Authz.CheckOwnerOr(ctx, caller, userID, models.RoleLibrarian); err != nil {
		return nil, err
	}
	return s.Repo.ListFeedback(ctx, userID, bookID)
}

func (s *FeedbackService) Get(ctx context.Context, caller Identity, userID, bookID, feedbackID uint) (*models.Feedback, error) {
	if _, err := s.Authz.CheckOwnerOr(ctx, caller, userID, models.RoleLibrarian); err != nil {
		return nil, err
	}
	fb, err := s.Repo.GetFeedback(ctx, userID, bookID, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: feedback %d", ErrNotFound, feedbackID)
		}
		return nil, err
	}
	return fb, nil
}
