package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
	"github.com/Skotchmaster/library/internal/util"
)

// UserService is the read side of the credential store.
type UserService struct {
	Repo  *repo.GormRepo
	Authz *Authorizer
}

func (s *UserService) List(ctx context.Context, caller Identity, page util.Page) ([]models.User, error) {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return nil, err
	}
	return s.Repo.ListUsers(ctx, page)
}

// Get returns one user. The user themself or a librarian may read.
func (s *UserService) Get(ctx context.Context, caller Identity, userID uint) (*models.User, error) {
	if _, err := s.Authz.CheckOwnerOr(ctx, caller, userID, models.RoleLibrarian); err != nil {
		return nil, err
	}
	u, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return nil, err
	}
	return u, nil
}

// LoginActivity lists users whose last login is in [from, to).
func (s *UserService) LoginActivity(ctx context.Context, caller Identity, from, to time.Time) ([]models.User, error) {
	if _, err := s.Authz.Check(ctx, caller, models.RoleLibrarian); err != nil {
		return nil, err
	}
	if from.IsZero() {
		return nil, fmt.Errorf("%w: start_date", ErrMissingField)
	}
	if to.IsZero() {
		return nil, fmt.Errorf("%w: end_date", ErrMissingField)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", ErrValidation)
	}
	return s.Repo.UsersLoggedInBetween(ctx, from.UTC(), to.UTC())
}
