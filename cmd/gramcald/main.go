package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gramcal/gramcal/internal/auth"
	"github.com/gramcal/gramcal/internal/calendar"
	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/export"
	"github.com/gramcal/gramcal/internal/ocr"
	"github.com/gramcal/gramcal/internal/pipeline"
	"github.com/gramcal/gramcal/internal/repository"
	"github.com/gramcal/gramcal/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 3*time.Second, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	drafts := repository.NewDraftRepository(pool, logger)
	committed := repository.NewCommittedEventRepository(pool, logger)
	messages := repository.NewMessageRepository(pool, logger)
	credentials := repository.NewCredentialRepository(pool, logger)

	tokens := auth.NewManager(auth.Config{
		TokenURL:     cfg.Google.TokenURL,
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		Timeout:      cfg.Google.Timeout,
	}, credentials, nil, logger)

	calendarClient := calendar.NewClient(calendar.Config{
		BaseURL: cfg.Google.CalendarURL,
		Timeout: cfg.Google.Timeout,
	}, nil, logger)

	recognizer := ocr.NewClient(ocr.Config{
		BaseURL: cfg.OCR.BaseURL,
		APIKey:  cfg.OCR.APIKey,
		Timeout: cfg.OCR.Timeout,
	}, nil, logger)

	commitStage := pipeline.NewCommitStage(logger, drafts, committed, tokens, calendarClient)
	ingestStage := pipeline.NewIngestStage(logger, recognizer, messages, drafts, commitStage)
	processor := pipeline.NewProcessor(logger, ingestStage, commitStage)
	exporter := export.NewService(committed, drafts, logger)

	api := server.New(processor, drafts, exporter, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
