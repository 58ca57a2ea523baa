package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adewale-k/compliance-docs/internal/batch"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/export"
	"github.com/adewale-k/compliance-docs/internal/extraction"
	"github.com/adewale-k/compliance-docs/internal/repository"
	"github.com/adewale-k/compliance-docs/internal/review"
	"github.com/adewale-k/compliance-docs/internal/server"
	"github.com/adewale-k/compliance-docs/internal/store"
	"github.com/adewale-k/compliance-docs/internal/upload"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// decision store: postgres when DB_URL is set, local sqlite otherwise
	var (
		db   *sql.DB
		pool *pgxpool.Pool
		err  error
	)
	if cfg.Database.DSN != "" {
		db, pool, err = repository.OpenPostgres(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("database connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
	} else {
		db, err = repository.OpenSQLite(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Error("sqlite open failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}
	if err := repository.HealthCheck(ctx, db); err != nil {
		logger.Error("database health failed", "err", err)
		os.Exit(1)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	decisions := repository.NewDecisionRepository(db, logger)
	profiles := repository.NewProfileRepository(db, logger)

	channel, err := upload.NewMinioChannel(&cfg.Store)
	if err != nil {
		logger.Error("object store init failed", "err", err)
		os.Exit(1)
	}
	if err := channel.EnsureBucket(ctx); err != nil {
		logger.Error("object store bucket check failed", "err", err)
		os.Exit(1)
	}

	registrar := upload.NewHTTPRegistrar(cfg.Upload.RegistrarURL, "")
	items := store.NewItemStore()
	orch := upload.NewOrchestrator(registrar, channel, items, cfg.Upload.MaxUploadBytes, logger)

	extractSvc := extraction.NewHTTPClient(cfg.Extraction.APIURL, cfg.Extraction.APIToken, cfg.Extraction.RequestTimeout, cfg.Extraction.PollRate)
	poller := extraction.NewPoller(extractSvc, store.NewJobStore(), logger)

	autofill := review.DefaultAutofill()
	if cfg.Review.AutofillPath != "" {
		autofill, err = review.LoadAutofill(cfg.Review.AutofillPath)
		if err != nil {
			logger.Error("autofill mapping load failed", "err", err)
			os.Exit(1)
		}
	}
	machine := review.NewMachine(
		poller,
		decisions,
		autofill,
		review.Thresholds{High: cfg.Review.HighThreshold, Medium: cfg.Review.MediumThreshold},
		extraction.PollConfig{MaxAttempts: cfg.Extraction.MaxAttempts, Interval: cfg.Extraction.PollInterval},
		logger,
	)

	coord := batch.NewCoordinator(logger, batch.WithConcurrency(cfg.Upload.Concurrency))
	exporter := export.NewService(decisions, logger)

	srv := server.New(orch, coord, machine, exporter, profiles, logger)
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}
