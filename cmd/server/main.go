package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ballotcore/election-system/internal/api"
	"github.com/ballotcore/election-system/internal/core/ports"
	"github.com/ballotcore/election-system/internal/core/service"
	mongostore "github.com/ballotcore/election-system/internal/infrastructure/db/mongo"
	redisstore "github.com/ballotcore/election-system/internal/infrastructure/db/redis"
	"github.com/ballotcore/election-system/internal/infrastructure/http/handlers"
	"github.com/ballotcore/election-system/internal/infrastructure/mail"
	"github.com/ballotcore/election-system/internal/infrastructure/queue"
	"github.com/ballotcore/election-system/internal/pkg/config"
	"github.com/ballotcore/election-system/pkg/logger"
)

const (
	serviceName     = "election-system"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close")
		}
	}()

	elections := mongostore.NewElectionRepository(db)
	admins := mongostore.NewAdminRepository(db)
	if err := elections.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := admins.EnsureIndexes(ctx); err != nil {
		return err
	}

	tasks := queue.NewRedisQueue(rdb)
	revocations := redisstore.NewSessionRevocations(rdb)

	var mailer ports.Mailer
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set, emails are written to the log")
		mailer = mail.NewLogMailer(logger.Component("mail"))
	} else {
		mailer = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			Encryption: mail.Encryption(cfg.SMTP.Encryption),
		})
	}

	// --- Services ---
	adminAuth := service.NewAdminAuthService(admins, tasks, cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL, logger.Component("admin_auth"))
	verification := service.NewVerificationService(admins, tasks, serviceName, logger.Component("verification"))
	voterAuth := service.NewVoterAuthService(elections, revocations, cfg.Auth.JWTSecret, cfg.Auth.VoterKeySecret, logger.Component("voter_auth"))
	electionSvc := service.NewElectionService(elections, admins, logger.Component("elections"))
	votes := service.NewVoteService(elections, voterAuth, logger.Component("votes"))
	notifications := service.NewNotificationService(elections, tasks, mailer, voterAuth, cfg.PublicBaseURL, logger.Component("notifications"))
	updater := service.NewStatusUpdater(electionSvc, logger.Component("status_updater"))

	// --- Background work ---
	bg, cancelBG := context.WithCancel(context.Background())
	defer cancelBG()

	if n, err := tasks.Recover(ctx); err != nil {
		log.Error().Err(err).Msg("recover in-flight tasks")
	} else if n > 0 {
		log.Info().Int("tasks", n).Msg("requeued in-flight tasks")
	}

	dispatcher := queue.NewDispatcher(tasks, notifications, cfg.Queue.Workers, cfg.Queue.MaxAttempts, logger.Component("dispatcher"))
	dispatcher.Start(bg)

	if cfg.Status.Interval > 0 {
		updater.Start(bg, cfg.Status.Interval)
	} else {
		log.Info().Msg("status updater disabled, relying on the reconcile trigger")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		AdminAuth:     adminAuth,
		Verification:  verification,
		VoterAuth:     voterAuth,
		Elections:     electionSvc,
		Votes:         votes,
		Notifications: notifications,
		Reconciler:    updater,
		HealthChecks: map[string]handlers.Check{
			"mongo": handlers.MongoCheck(db),
			"redis": handlers.RedisCheck(rdb),
		},
		CronSecret:    cfg.Auth.CronSecret,
		AdminTokenTTL: cfg.Auth.AdminTokenTTL,
		SecureCookies: cfg.IsProduction(),
		Log:           logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			cancelBG()
			dispatcher.Wait()
			return err
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	cancelBG()
	dispatcher.Wait()
	log.Info().Msg("shutdown complete")
	return nil
}
