package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/library/pkg/tokens"
)

// RevocationList is the append-only jti denylist.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, kind tokens.Kind, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Identity is the caller resolved from a verified, unrevoked token.
type Identity struct {
	Username  string
	JTI       string
	ExpiresAt time.Time
}

func (id Identity) IsZero() bool { return id.Username == "" }

type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

type TokenService struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Revocations   RevocationList
	Now           func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) IssueAccessToken(username string) (IssuedToken, error) {
	return s.issue(tokens.KindAccess, username, s.AccessTTL, s.AccessSecret)
}

func (s *TokenService) IssueRefreshToken(username string) (IssuedToken, error) {
	return s.issue(tokens.KindRefresh, username, s.RefreshTTL, s.RefreshSecret)
}

func (s *TokenService) issue(kind tokens.Kind, username string, ttl time.Duration, secret []byte) (IssuedToken, error) {
	if username == "" {
		return IssuedToken{}, fmt.Errorf("%w: empty subject", ErrValidation)
	}
	claims := tokens.NewClaims(kind, username, s.now(), ttl)
	signed, err := tokens.Sign(claims, secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return IssuedToken{Token: signed, JTI: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ResolveIdentity validates an access token and checks its jti against
// the revocation list.
func (s *TokenService) ResolveIdentity(ctx context.Context, token string) (Identity, error) {
	return s.resolve(ctx, token, tokens.KindAccess, s.AccessSecret)
}

func (s *TokenService) ResolveRefresh(ctx context.Context, token string) (Identity, error) {
	return s.resolve(ctx, token, tokens.KindRefresh, s.RefreshSecret)
}

func (s *TokenService) resolve(ctx context.Context, token string, kind tokens.Kind, secret []byte) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	claims, err := tokens.Parse(token, kind, secret, s.now)
	if err != nil {
		return Identity{}, mapParseError(err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return Identity{}, ErrInvalidToken
	}

	revoked, err := s.Revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Identity{}, ErrRevokedToken
	}

	return Identity{
		Username:  claims.Subject,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke permanently invalidates an access token. Expired but
// well-signed tokens are still recorded; revoking twice is a no-op.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	return s.revoke(ctx, token, tokens.KindAccess, s.AccessSecret)
}

func (s *TokenService) RevokeRefresh(ctx context.Context, token string) error {
	return s.revoke(ctx, token, tokens.KindRefresh, s.RefreshSecret)
}

func (s *TokenService) revoke(ctx context.Context, token string, kind tokens.Kind, secret []byte) error {
	claims, err := s.inspect(token, kind, secret)
	if err != nil {
		return err
	}
	return s.RevokeClaims(ctx, claims)
}

// inspect verifies the signature only, so expired tokens can still be
// identified.
func (s *TokenService) inspect(token string, kind tokens.Kind, secret []byte) (*tokens.Claims, error) {
	claims, err := tokens.ParseSignedOnly(token, kind, secret)
	if err != nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) InspectRefresh(token string) (*tokens.Claims, error) {
	return s.inspect(token, tokens.KindRefresh, s.RefreshSecret)
}

// RevokeClaims records the jti of already verified claims.
func (s *TokenService) RevokeClaims(ctx context.Context, claims *tokens.Claims) error {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.Revocations.Revoke(ctx, claims.ID, claims.Kind, exp); err != nil {
		return fmt.Errorf("revoke %s token: %w", claims.Kind, err)
	}
	return nil
}

// Refresh exchanges a live refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (IssuedToken, error) {
	id, err := s.ResolveRefresh(ctx, refreshToken)
	if err != nil {
		return IssuedToken{}, err
	}
	return s.IssueAccessToken(id.Username)
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrInvalidToken
	}
}
