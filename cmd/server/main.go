package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"moroccodreams/app/internal/assist"
	"moroccodreams/app/internal/auth"
	"moroccodreams/app/internal/config"
	appdb "moroccodreams/app/internal/db"
	apphttp "moroccodreams/app/internal/http"
	applog "moroccodreams/app/internal/log"
	"moroccodreams/app/internal/page"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := page.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	repository, err := page.NewRepository(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building page repository")
	}

	pageService, err := page.NewService(repository, logger, sentryHub)
	if err != nil {
		return eris.Wrap(err, "creating page service")
	}

	tokens, err := auth.NewTokenService(cfg.AuthSecret, cfg.TokenExpiry)
	if err != nil {
		return eris.Wrap(err, "creating token service")
	}

	var seoWriter assist.Writer
	if cfg.AssistAPIKey != "" {
		client, err := assist.NewClient(assist.ClientOptions{
			APIKey:  cfg.AssistAPIKey,
			BaseURL: cfg.AssistBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return eris.Wrap(err, "creating assist client")
		}

		seoWriter, err = assist.NewWriter(assist.WriterOptions{
			Client: client,
			Model:  cfg.AssistModel,
		})
		if err != nil {
			return eris.Wrap(err, "initialising seo writer")
		}
	} else {
		logger.Info("assist api key not set, content assistant disabled")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		PageService: pageService,
		Tokens:      tokens,
		SEOWriter:   seoWriter,
		Database:    dbConn,
		Logger:      logger,
		SentryHub:   sentryHub,
		AdminKey:    cfg.AdminKey,
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: cfg.RatePerSecond,
			Burst:             cfg.RateBurst,
			ClientTTL:         cfg.RateClientTTL,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr": httpServer.Addr,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}
