package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/models"
)

type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authorizer gates an operation on the caller's role. Roles match
// exactly; admin does not satisfy a librarian gate.
type Authorizer struct {
	Users UserLookup
}

// Caller resolves the identity to its user without any role check.
func (a *Authorizer) Caller(ctx context.Context, id Identity) (*models.User, error) {
	if id.IsZero() {
		return nil, ErrUnauthenticated
	}
	user, err := a.Users.GetUserByUsername(ctx, id.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup caller: %w", err)
	}
	return user, nil
}

func (a *Authorizer) Check(ctx context.Context, id Identity, requiredRole string) (*models.User, error) {
	user, err := a.Caller(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.RoleID != requiredRole {
		return nil, fmt.Errorf("%w: requires role %s", ErrForbidden, requiredRole)
	}
	return user, nil
}

// CheckOwnerOr passes when the caller is ownerID or holds role.
func (a *Authorizer) CheckOwnerOr(ctx context.Context, id Identity, ownerID uint, role string) (*models.User, error) {
	user, err := a.Caller(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID != ownerID && user.RoleID != role {
		return nil, fmt.Errorf("%w: not the owner", ErrForbidden)
	}
	return user, nil
}
