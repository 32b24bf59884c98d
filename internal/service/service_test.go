package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/library/internal/events"
	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
	"github.com/Skotchmaster/library/pkg/db"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	Repo     *repo.GormRepo
	Clock    *clock
	Events   *events.Recorder
	Tokens   *TokenService
	Authz    *Authorizer
	Auth     *AuthService
	Lending  *LendingService
	Feedback *FeedbackService
	Reports  *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(ctx))
	require.NoError(t, r.SeedRoles(ctx))

	clk := newClock()
	rec := &events.Recorder{}
	tokens := &TokenService{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
		Revocations:   r,
		Now:           clk.Now,
	}
	authz := &Authorizer{Users: r}

	return &testEnv{
		Repo:     r,
		Clock:    clk,
		Events:   rec,
		Tokens:   tokens,
		Authz:    authz,
		Auth:     &AuthService{Repo: r, Tokens: tokens, Authz: authz, Events: rec, Now: clk.Now},
		Lending:  &LendingService{Repo: r, Authz: authz, Events: rec, LoanPeriod: DefaultLoanPeriod, Now: clk.Now},
		Feedback: &FeedbackService{Repo: r, Authz: authz, Events: rec, Now: clk.Now},
		Reports:  &ReportService{Repo: r, Now: clk.Now},
	}
}

// register creates a user and returns it with a resolvable identity.
func (env *testEnv) register(t *testing.T, username, role string) (*models.User, Identity) {
	t.Helper()
	ctx := context.Background()
	u, err := env.Auth.Register(ctx, RegisterInput{
		Username: username,
		Email:    username + "@library.test",
		Password: "secret-" + username,
		Role:     role,
	})
	require.NoError(t, err)

	access, err := env.Tokens.IssueAccessToken(username)
	require.NoError(t, err)
	id, err := env.Tokens.ResolveIdentity(ctx, access.Token)
	require.NoError(t, err)
	return u, id
}

// seedBooks creates n books in one section and returns them in id order.
func (env *testEnv) seedBooks(t *testing.T, n int) []models.Book {
	t.Helper()
	ctx := context.Background()
	sec := &models.Section{Name: "Classics", Description: "Old books"}
	require.NoError(t, env.Repo.CreateSection(ctx, sec))

	out := make([]models.Book, 0, n)
	for i := 1; i <= n; i++ {
		b := &models.Book{
			Name:      fmt.Sprintf("Book %d", i),
			Author:    "Author",
			Path:      fmt.Sprintf("/books/%d.pdf", i),
			SectionID: sec.ID,
		}
		require.NoError(t, env.Repo.CreateBook(ctx, b))
		out = append(out, *b)
	}
	return out
}
