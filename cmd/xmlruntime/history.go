package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nerrad567/gray-logic-xmlruntime/internal/history"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-xmlruntime/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-xmlruntime/migrations"
)

// openHistory opens the history database and brings its schema up to date.
func openHistory(ctx context.Context, cfg *config.Config, log *logging.Logger) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.History.Path,
		WALMode:     cfg.History.WALMode,
		BusyTimeout: cfg.GetBusyTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if len(applied) > 0 {
		log.Debug("history schema migrated", "path", db.Path(), "versions", applied)
	}
	return db, nil
}

// showHistory prints recorded loads instead of loading a document: the
// latest load of opts.document with -history-last, otherwise a page of
// loads, narrowed to opts.document when one is given.
func showHistory(ctx context.Context, opts *cliOptions, cfg *config.Config, log *logging.Logger, stdout io.Writer) error {
	db, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing history database", "error", closeErr)
		}
	}()

	var repo history.Repository = history.NewSQLiteRepository(db.DB)

	if opts.historyLast {
		rec, err := repo.Latest(ctx, opts.document)
		if err != nil {
			return err
		}
		return writeRecord(stdout, cfg.Output.Format, rec)
	}

	result, err := repo.List(ctx, history.Filter{
		Path:    opts.document,
		Outcome: opts.outcome,
		Limit:   opts.limit,
	})
	if err != nil {
		return err
	}
	return writeHistory(stdout, cfg.Output.Format, result)
}
