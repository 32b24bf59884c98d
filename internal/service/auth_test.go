package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/library/internal/events"
	"github.com/Skotchmaster/library/internal/models"
)

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{name: "missing username", in: RegisterInput{Email: "a@b.c", Password: "p", Role: "user"}, want: ErrMissingField},
		{name: "missing email", in: RegisterInput{Username: "a", Password: "p", Role: "user"}, want: ErrMissingField},
		{name: "missing password", in: RegisterInput{Username: "a", Email: "a@b.c", Role: "user"}, want: ErrMissingField},
		{name: "missing role", in: RegisterInput{Username: "a", Email: "a@b.c", Password: "p"}, want: ErrMissingField},
		{name: "malformed email", in: RegisterInput{Username: "a", Email: "nope", Password: "p", Role: "user"}, want: ErrValidation},
		{name: "unknown role", in: RegisterInput{Username: "a", Email: "a@b.c", Password: "p", Role: "wizard"}, want: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Auth.Register(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_RegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.Auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.io", Password: "pw", Role: models.RoleUser})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "pw", u.PasswordHash)
	assert.True(t, u.Active)

	_, err = env.Auth.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.io", Password: "pw", Role: models.RoleUser})
	require.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.Auth.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@x.io", Password: "pw", Role: models.RoleUser})
	require.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.Equal(t, []string{events.UserRegistered}, env.Events.Types())
}

func TestAuthService_LoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.io", Password: "pw", Role: models.RoleUser})
	require.NoError(t, err)

	env.Clock.Advance(2 * time.Hour)
	res, err := env.Auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	id, err := env.Tokens.ResolveIdentity(ctx, res.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)

	refreshID, err := env.Tokens.ResolveRefresh(ctx, res.Refresh.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", refreshID.Username)

	stored, err := env.Repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, stored.LastLoggedIn.Equal(env.Clock.Now()))

	_, err = env.Auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = env.Auth.Login(ctx, "ghost", "pw")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.Auth.Login(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.io", Password: "pw", Role: models.RoleUser})
	require.NoError(t, err)
	res, err := env.Auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	id, err := env.Tokens.ResolveIdentity(ctx, res.Access.Token)
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(ctx, id, res.Access.Token, res.Refresh.Token))

	_, err = env.Tokens.ResolveIdentity(ctx, res.Access.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)
	_, err = env.Auth.Refresh(ctx, res.Refresh.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	assert.ErrorIs(t, env.Auth.Logout(ctx, Identity{}, res.Access.Token, ""), ErrUnauthenticated)
}

func TestAuthService_LogoutSkipsUnusableRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{"alice", "bob"} {
		_, err := env.Auth.Register(ctx, RegisterInput{Username: name, Email: name + "@x.io", Password: "pw", Role: models.RoleUser})
		require.NoError(t, err)
	}
	alice, err := env.Auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := env.Auth.Login(ctx, "bob", "pw")
	require.NoError(t, err)

	id, err := env.Tokens.ResolveIdentity(ctx, alice.Access.Token)
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(ctx, id, alice.Access.Token, "garbage"))
	_, err = env.Tokens.ResolveIdentity(ctx, alice.Access.Token)
	assert.ErrorIs(t, err, ErrRevokedToken)

	second, err := env.Auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	id, err = env.Tokens.ResolveIdentity(ctx, second.Access.Token)
	require.NoError(t, err)

	require.NoError(t, env.Auth.Logout(ctx, id, second.Access.Token, bob.Refresh.Token))
	_, err = env.Auth.Refresh(ctx, bob.Refresh.Token)
	assert.NoError(t, err, "another user's refresh token must survive")
	_, err = env.Auth.Refresh(ctx, alice.Refresh.Token)
	assert.NoError(t, err)
}

func TestAuthorizer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, aliceID := env.register(t, "alice", models.RoleUser)
	_, libID := env.register(t, "libby", models.RoleLibrarian)
	_, adminID := env.register(t, "root", models.RoleAdmin)

	u, err := env.Authz.Check(ctx, libID, models.RoleLibrarian)
	require.NoError(t, err)
	assert.Equal(t, "libby", u.Username)

	_, err = env.Authz.Check(ctx, aliceID, models.RoleLibrarian)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.Authz.Check(ctx, adminID, models.RoleLibrarian)
	assert.ErrorIs(t, err, ErrForbidden, "admin must not satisfy a librarian gate")

	_, err = env.Authz.Check(ctx, Identity{}, models.RoleUser)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.Authz.Check(ctx, Identity{Username: "vanished"}, models.RoleUser)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.Authz.CheckOwnerOr(ctx, aliceID, alice.ID, models.RoleLibrarian)
	assert.NoError(t, err)
	_, err = env.Authz.CheckOwnerOr(ctx, libID, alice.ID, models.RoleLibrarian)
	assert.NoError(t, err)
	_, err = env.Authz.CheckOwnerOr(ctx, adminID, alice.ID, models.RoleLibrarian)
	assert.ErrorIs(t, err, ErrForbidden)

	who, err := env.Auth.WhoAmI(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, who.ID)
}
