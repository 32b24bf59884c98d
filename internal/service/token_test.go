package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	access, err := env.Tokens.IssueAccessToken("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, access.JTI)
	assert.True(t, access.ExpiresAt.Equal(env.Clock.Now().Add(15*time.Minute)))

	id, err := env.Tokens.ResolveIdentity(ctx, access.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, access.JTI, id.JTI)

	_, err = env.Tokens.IssueAccessToken("")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTokenService_ResolveErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	access, err := env.Tokens.IssueAccessToken("alice")
	require.NoError(t, err)
	refresh, err := env.Tokens.IssueRefreshToken("alice")
	require.NoError(t, err)

	other := &TokenService{AccessSecret: []byte("other"), AccessTTL: time.Minute, Revocations: env.Repo, Now: env.Clock.Now}
	forged, err := other.IssueAccessToken("alice")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrInvalidToken},
		{name: "garbage", token: "abc.def.ghi", want: ErrInvalidToken},
		{name: "bad signature", token: forged.Token, want: ErrInvalidToken},
		{name: "refresh used as access", token: refresh.Token, want: ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Tokens.ResolveIdentity(ctx, tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}

	env.Clock.Advance(16 * time.Minute)
	_, err = env.Tokens.ResolveIdentity(ctx, access.Token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenService_RevokeIsPermanentAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	access, err := env.Tokens.IssueAccessToken("alice")
	require.NoError(t, err)

	require.NoError(t, env.Tokens.Revoke(ctx, access.Token))
	require.NoError(t, env.Tokens.Revoke(ctx, access.Token))

	_, err = env.Tokens.ResolveIdentity(ctx, access.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	fresh, err := env.Tokens.IssueAccessToken("alice")
	require.NoError(t, err)
	_, err = env.Tokens.ResolveIdentity(ctx, fresh.Token)
	assert.NoError(t, err)

	assert.ErrorIs(t, env.Tokens.Revoke(ctx, "garbage"), ErrInvalidToken)
}

func TestTokenService_RevokeExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	access, err := env.Tokens.IssueAccessToken("alice")
	require.NoError(t, err)
	env.Clock.Advance(time.Hour)

	require.NoError(t, env.Tokens.Revoke(ctx, access.Token))
	revoked, err := env.Repo.IsRevoked(ctx, access.JTI)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenService_Refresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	refresh, err := env.Tokens.IssueRefreshToken("bob")
	require.NoError(t, err)

	env.Clock.Advance(time.Hour)
	access, err := env.Tokens.Refresh(ctx, refresh.Token)
	require.NoError(t, err)

	id, err := env.Tokens.ResolveIdentity(ctx, access.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob", id.Username)

	again, err := env.Tokens.Refresh(ctx, refresh.Token)
	require.NoError(t, err)
	assert.NotEqual(t, access.JTI, again.JTI)

	accessOnly, err := env.Tokens.IssueAccessToken("bob")
	require.NoError(t, err)
	_, err = env.Tokens.Refresh(ctx, accessOnly.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, env.Tokens.RevokeRefresh(ctx, refresh.Token))
	_, err = env.Tokens.Refresh(ctx, refresh.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)
}
