package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/library/internal/cache"
	"github.com/Skotchmaster/library/internal/config"
	"github.com/Skotchmaster/library/internal/events"
	"github.com/Skotchmaster/library/internal/httpserver"
	"github.com/Skotchmaster/library/internal/jobs"
	"github.com/Skotchmaster/library/internal/mail"
	"github.com/Skotchmaster/library/internal/repo"
	"github.com/Skotchmaster/library/internal/service"
	"github.com/Skotchmaster/library/pkg/logging"
	loggingmw "github.com/Skotchmaster/library/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := config.InitDB(initCtx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	gormRepo := &repo.GormRepo{DB: db}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			logger.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err)
		}
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		publisher = producer
	}

	var sender mail.Sender = mail.LogSender{}
	if cfg.SendGridAPIKey != "" {
		sg, err := mail.NewSendGrid(cfg.SendGridAPIKey, cfg.MailSenderName, cfg.MailSender)
		if err != nil {
			log.Fatalf("sendgrid: %v", err)
		}
		sender = sg
	}

	tokens := &service.TokenService{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Revocations:   &cache.Revocations{Store: gormRepo, Client: redisClient},
	}
	authz := &service.Authorizer{Users: gormRepo}
	reports := &service.ReportService{Repo: gormRepo}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo: gormRepo, Tokens: tokens, Authz: authz, Events: publisher,
		}},
		LendingHandler: &httpserver.LendingHTTP{Svc: &service.LendingService{
			Repo: gormRepo, Authz: authz, Events: publisher, LoanPeriod: cfg.LoanPeriod,
		}},
		FeedbackHandler: &httpserver.FeedbackHTTP{Svc: &service.FeedbackService{
			Repo: gormRepo, Authz: authz, Events: publisher,
		}},
		UserHandler: &httpserver.UserHTTP{Svc: &service.UserService{
			Repo: gormRepo, Authz: authz,
		}},
		Auth:           httpserver.NewBearerAuth(tokens),
		LoginRateLimit: cfg.LoginRateLimit,
		Ready:          gormRepo.Ping,
	})

	scheduler := jobs.NewScheduler(reports, sender, cfg.InactiveAfter, logger)
	if err := scheduler.Start(cfg.ReminderSchedule, cfg.ReportSchedule); err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	scheduler.Stop(shutdownCtx)

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka_close_failed", "error", err)
		}
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("library stopped")
}
