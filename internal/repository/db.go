package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/adewale-k/compliance-docs/internal/common"
)

// OpenSQLite opens (and creates if missing) the local decision store.
func OpenSQLite(path string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// modernc sqlite is not safe for concurrent writers on one conn
	db.SetMaxOpenConns(1)
	logger.Info("sqlite store opened", "path", path)
	return db, nil
}

// OpenPostgres creates a pgx pool, wraps it for database/sql, and
// returns both. The pool handle is returned so the caller can close it
// on shutdown.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "compliance-docs"

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	logger.Info("successfully connected to database")
	return db, pool, nil
}

// HealthCheck pings the database within the given context.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}

// Migrate creates the persistence schema. Statements are portable
// across sqlite and postgres.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS review_decisions (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL,
			document_type TEXT NOT NULL,
			approved BOOLEAN NOT NULL,
			fields TEXT,
			raw_fields TEXT,
			reject_reason TEXT,
			override_used BOOLEAN NOT NULL DEFAULT FALSE,
			decided_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			legal_name TEXT NOT NULL,
			owner_name TEXT,
			address TEXT,
			cert_number TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_decisions_decided_at ON review_decisions (decided_at)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
