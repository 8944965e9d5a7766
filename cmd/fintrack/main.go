package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"fintrack/internal/amqp"
	"fintrack/internal/auth/google"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	var events services.BudgetCheckPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// alerts catch up through the worker's periodic sweep
			logger.Warn("AMQP unavailable, budget checks will not be published", "error", err)
		} else {
			events = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.New(repo, events, services.Options{SessionLifetime: cfg.SessionLifetime})

	var provider apphttp.IdentityProvider
	if cfg.GoogleEnabled() {
		provider = google.NewProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		logger.Info("Google sign-in enabled")
	}

	srv := apphttp.NewServer(svc, repo, apphttp.Options{
		Addr:               cfg.Addr(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CookieSecure:       cfg.SessionCookieSecure,
		Google:             provider,
		Logger:             logger,
	})

	_, done := cli.GracefulShutdown(logger, func(ctx context.Context) error {
		var errs []error
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
