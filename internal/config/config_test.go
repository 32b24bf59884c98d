package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
	"github.com/Skotchmaster/library/pkg/hash"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("JWT_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "r")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOAN_PERIOD_DAYS", "14")

	cfg := Load()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 14*24*time.Hour, cfg.LoanPeriod)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "library_events", cfg.KafkaTopic)
	assert.Equal(t, "@every 1h", cfg.ReminderSchedule)
	assert.Equal(t, 5.0, cfg.LoginRateLimit)
}

func TestInitDB_SQLiteWithLibrarian(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		DBDriver:          "sqlite",
		DatabaseURL:       ":memory:",
		LibrarianUsername: "libby",
		LibrarianEmail:    "libby@lib.test",
		LibrarianPassword: "shelves",
	}

	db, err := InitDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	r := &repo.GormRepo{DB: db}
	u, err := r.GetUserByUsername(ctx, "libby")
	require.NoError(t, err)
	assert.Equal(t, models.RoleLibrarian, u.RoleID)
	assert.True(t, hash.CheckPassword(u.PasswordHash, "shelves"))

	require.NoError(t, BootstrapLibrarian(ctx, r, cfg), "second bootstrap is a no-op")
}

func TestLoanPeriod_Bounds(t *testing.T) {
	d, err := LoanPeriod(7)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	d, err = LoanPeriod(3650)
	require.NoError(t, err)
	assert.Equal(t, 3650*24*time.Hour, d)

	for _, days := range []int{0, -3, 3651, 200000} {
		_, err := LoanPeriod(days)
		assert.Error(t, err, "days=%d", days)
	}
}
