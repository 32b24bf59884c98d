package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Skotchmaster/library/internal/models"
	"github.com/Skotchmaster/library/internal/repo"
	"github.com/Skotchmaster/library/internal/service"
	pkgcfg "github.com/Skotchmaster/library/pkg/config"
	pkgdb "github.com/Skotchmaster/library/pkg/db"
	"github.com/Skotchmaster/library/pkg/hash"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DBDriver    string
	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	LoanPeriod       time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	SendGridAPIKey string
	MailSenderName string
	MailSender     string

	ReminderSchedule string
	ReportSchedule   string
	InactiveAfter    time.Duration

	LibrarianUsername string
	LibrarianEmail    string
	LibrarianPassword string

	LoginRateLimit float64
}

// Load reads .env (if present) and the environment. Missing secrets or
// DATABASE_URL abort the process.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "library"),
		ServerPort:  pkgcfg.EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    pkgcfg.EnvDefault("DB_DRIVER", pkgdb.DriverPostgres),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTokenTTL:   pkgcfg.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  pkgcfg.EnvDurationDefault("REFRESH_TOKEN_TTL", 720*time.Hour),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       pkgcfg.EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   pkgcfg.EnvDefault("KAFKA_TOPIC", "library_events"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailSenderName: pkgcfg.EnvDefault("MAIL_SENDER_NAME", "Library"),
		MailSender:     os.Getenv("MAIL_SENDER"),

		ReminderSchedule: pkgcfg.EnvDefault("REMINDER_SCHEDULE", "@every 1h"),
		ReportSchedule:   pkgcfg.EnvDefault("REPORT_SCHEDULE", "0 30 17 25 * *"),
		InactiveAfter:    pkgcfg.EnvDurationDefault("INACTIVE_AFTER", 24*time.Hour),

		LibrarianUsername: os.Getenv("LIBRARIAN_USERNAME"),
		LibrarianEmail:    os.Getenv("LIBRARIAN_EMAIL"),
		LibrarianPassword: os.Getenv("LIBRARIAN_PASSWORD"),

		LoginRateLimit: pkgcfg.EnvFloatDefault("LOGIN_RATE_LIMIT", 5),
	}

	period, err := LoanPeriod(pkgcfg.EnvIntDefault("LOAN_PERIOD_DAYS", 7))
	if err != nil {
		log.Fatalf("LOAN_PERIOD_DAYS: %v", err)
	}
	cfg.LoanPeriod = period

	pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	pkgcfg.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	return cfg
}

// LoanPeriod converts a day count into the default loan period.
func LoanPeriod(days int) (time.Duration, error) {
	if days < 1 || days > service.MaxLoanDays {
		return 0, fmt.Errorf("must be between 1 and %d, got %d", service.MaxLoanDays, days)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// InitDB opens the database, migrates every table and seeds roles.
func InitDB(ctx context.Context, cfg Config) (*gorm.DB, error) {
	db, err := pkgdb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	r := &repo.GormRepo{DB: db}
	if err := r.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := r.SeedRoles(ctx); err != nil {
		return nil, fmt.Errorf("seed roles: %w", err)
	}
	if err := BootstrapLibrarian(ctx, r, cfg); err != nil {
		return nil, fmt.Errorf("bootstrap librarian: %w", err)
	}
	return db, nil
}

// BootstrapLibrarian creates the configured librarian account once.
func BootstrapLibrarian(ctx context.Context, r *repo.GormRepo, cfg Config) error {
	if cfg.LibrarianUsername == "" || cfg.LibrarianPassword == "" || cfg.LibrarianEmail == "" {
		return nil
	}

	_, err := r.GetUserByUsername(ctx, cfg.LibrarianUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pwHash, err := hash.HashPassword(cfg.LibrarianPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return r.CreateUser(ctx, &models.User{
		Username:         cfg.LibrarianUsername,
		Email:            cfg.LibrarianEmail,
		PasswordHash:     pwHash,
		RoleID:           models.RoleLibrarian,
		Active:           true,
		ConfirmedAt:      now,
		LastLoggedIn:     now,
		LastReminderSent: now,
	})
}
