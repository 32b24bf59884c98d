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
	"github.com/Skotchmaster/library/pkg/hash"
	"github.com/Skotchmaster/library/pkg/logging"
	"github.com/Skotchmaster/library/pkg/tokens"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

type LoginResult struct {
	User    *models.User
	Access  IssuedToken
	Refresh IssuedToken
}

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *TokenService
	Authz  *Authorizer
	Events events.Publisher
	Now    func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	switch {
	case in.Username == "":
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	case in.Email == "":
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	case in.Password == "":
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	case in.Role == "":
		return nil, fmt.Errorf("%w: role", ErrMissingField)
	}
	if !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: malformed email", ErrValidation)
	}

	ok, err := s.Repo.RoleExists(ctx, in.Role)
	if err != nil {
		return nil, fmt.Errorf("lookup role: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Username:         in.Username,
		Email:            in.Email,
		PasswordHash:     pwHash,
		RoleID:           in.Role,
		Active:           true,
		ConfirmedAt:      now,
		LastLoggedIn:     now,
		LastReminderSent: now,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrUsernameTaken):
			return nil, ErrUsernameTaken
		case errors.Is(err, repo.ErrEmailTaken):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	publish(ctx, s.Events, events.Event{
		Type: events.UserRegistered,
		Key:  user.Username,
		Data: map[string]any{"user_id": user.ID, "role": user.RoleID},
	})
	return user, nil
}

// Login verifies credentials, stamps last_logged_in and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	}

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: account disabled", ErrForbidden)
	}

	access, err := s.Tokens.IssueAccessToken(user.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Tokens.IssueRefreshToken(user.Username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.Repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLoggedIn = now
	l.Debug("last_login_updated", "user_id", user.ID)

	publish(ctx, s.Events, events.Event{
		Type: events.UserLoggedIn,
		Key:  user.Username,
		Data: map[string]any{"user_id": user.ID},
	})
	return &LoginResult{User: user, Access: access, Refresh: refresh}, nil
}

// Logout revokes the presented access token and, when given, the
// caller's own refresh token. A refresh token that does not verify or
// belongs to someone else is skipped, not an error.
func (s *AuthService) Logout(ctx context.Context, id Identity, accessToken, refreshToken string) error {
	if id.IsZero() {
		return ErrUnauthenticated
	}
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	var refresh *tokens.Claims
	if refreshToken != "" {
		claims, err := s.Tokens.InspectRefresh(refreshToken)
		switch {
		case err != nil:
			l.Warn("refresh_revoke_skipped", "reason", "invalid refresh token")
		case claims.Subject != id.Username:
			l.Warn("refresh_revoke_skipped", "reason", "subject mismatch")
		default:
			refresh = claims
		}
	}

	if err := s.Tokens.Revoke(ctx, accessToken); err != nil {
		return err
	}
	if refresh != nil {
		if err := s.Tokens.RevokeClaims(ctx, refresh); err != nil {
			return err
		}
	}
	publish(ctx, s.Events, events.Event{Type: events.UserLoggedOut, Key: id.Username})
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (IssuedToken, error) {
	return s.Tokens.Refresh(ctx, refreshToken)
}

func (s *AuthService) WhoAmI(ctx context.Context, id Identity) (*models.User, error) {
	return s.Authz.Caller(ctx, id)
}
