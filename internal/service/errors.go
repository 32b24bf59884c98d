package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUserNotFound    = errors.New("user not found")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")

	ErrInvalidTransition = errors.New("invalid status transition")
)

var (
	ErrInvalidToken   = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrExpiredToken   = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrRevokedToken   = fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	ErrBadCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)

	ErrMissingField = fmt.Errorf("%w: missing field", ErrValidation)

	ErrUsernameTaken    = fmt.Errorf("%w: Username already taken", ErrConflict)
	ErrEmailTaken       = fmt.Errorf("%w: Email already registered", ErrConflict)
	ErrDuplicateRequest = fmt.Errorf("%w: request already pending", ErrConflict)
	ErrDuplicateLoan    = fmt.Errorf("%w: book already issued to user", ErrConflict)
	ErrAlreadyReturned  = fmt.Errorf("%w: book already returned", ErrConflict)
)
