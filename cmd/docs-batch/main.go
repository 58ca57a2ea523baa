// docs-batch is the operator CLI for bulk pipeline operations: batch
// document upload and bulk CSV profile import.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/batch"
	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
	"github.com/adewale-k/compliance-docs/internal/repository"
	"github.com/adewale-k/compliance-docs/internal/store"
	"github.com/adewale-k/compliance-docs/internal/upload"
)

var (
	flagConcurrency int
	flagDocType     string
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:   "docs-batch",
		Short: "Bulk operations for the compliance document pipeline",
	}
	root.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 4, "concurrent items")

	uploadCmd := &cobra.Command{
		Use:   "upload <dir>",
		Short: "Upload every allowed file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload,
	}
	uploadCmd.Flags().StringVar(&flagDocType, "document-type", "", "document type for all files")

	importCmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Bulk-import profiles from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	root.AddCommand(uploadCmd, importCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := common.LoadConfig()
	logger := slog.Default()

	channel, err := upload.NewMinioChannel(&cfg.Store)
	if err != nil {
		return err
	}
	registrar := upload.NewHTTPRegistrar(cfg.Upload.RegistrarURL, "")
	orch := upload.NewOrchestrator(registrar, channel, store.NewItemStore(), cfg.Upload.MaxUploadBytes, logger)

	docType, _ := constants.CanonicalizeDocumentType(flagDocType)

	var reqs []upload.SubmitRequest
	var files []*os.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	err = filepath.WalkDir(args[0], func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !constants.ExtAllowed(filepath.Ext(path)) {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return err
		}
		files = append(files, f)
		reqs = append(reqs, upload.SubmitRequest{
			Filename:     filepath.Base(path),
			Size:         info.Size(),
			DocumentType: docType,
			Body:         f,
		})
		return nil
	})
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return fmt.Errorf("no uploadable files under %s", args[0])
	}

	coord := batch.NewCoordinator(logger,
		batch.WithConcurrency(flagConcurrency),
		batch.WithProgress(func(done, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d", done, total)
		}),
	)
	result := coord.RunBatchUpload(cmd.Context(), orch, reqs)
	fmt.Fprintln(os.Stderr)
	printResult(result)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := common.LoadConfig()
	logger := slog.Default()
	ctx := cmd.Context()

	var db *sql.DB
	var err error
	if cfg.Database.DSN != "" {
		pgdb, pool, err := repository.OpenPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		db = pgdb
	} else {
		db, err = repository.OpenSQLite(cfg.Database.SQLitePath, logger)
		if err != nil {
			return err
		}
		defer db.Close()
	}
	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	profiles := repository.NewProfileRepository(db, logger)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	coord := batch.NewCoordinator(logger, batch.WithConcurrency(flagConcurrency))
	result, err := coord.ImportCSV(ctx, f, func(ctx context.Context, row batch.ProfileRow) (string, error) {
		owner := row.OwnerName
		addr := fmt.Sprintf("%s, %s, %s %s", row.Address, row.City, row.State, row.Zip)
		p, err := profiles.CreateProfile(ctx, entity.Profile{
			LegalName: row.LegalName,
			OwnerName: &owner,
			Address:   &addr,
		})
		if err != nil {
			return "", err
		}
		return p.ID.String(), nil
	})
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func printResult(result entity.BatchResult) {
	fmt.Printf("total=%d succeeded=%d failed=%d\n", result.Total, len(result.Succeeded), len(result.Failed))
	for _, f := range result.Failed {
		fmt.Printf("  [%d] %s: %s\n", f.Index, f.Key, f.Reason)
	}
}
