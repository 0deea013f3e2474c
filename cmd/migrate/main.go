package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/postgres"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Print pending migration SQL without executing it")
	waitFor := flag.Duration("wait", time.Minute, "How long to wait for the database to accept connections")
	flag.Parse()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)

	// the database container usually starts alongside this job
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = *waitFor
	db, err := backoff.RetryNotifyWithData(func() (*postgres.DB, error) {
		return postgres.Open(cfg.Postgres, logger)
	}, b, func(err error, next time.Duration) {
		logger.Warnw("Database not ready, retrying", "error", err, "retry_in", next)
	})
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrator := postgres.NewMigrator(db)

	if *dryRun {
		logger.Info("Dry run mode - printing pending migration SQL without executing")
		pending, err := migrator.Pending(ctx)
		if err != nil {
			logger.Fatalw("Failed to list pending migrations", "error", err)
		}
		for _, mig := range pending {
			fmt.Printf("-- %s\n%s\n", mig.Version, mig.SQL)
		}
		logger.Infow("Pending migrations", "count", len(pending))
		return
	}

	logger.Info("Running database migrations...")
	applied, err := migrator.Apply(ctx)
	if err != nil {
		logger.Fatalw("Failed to apply migrations", "error", err, "applied", applied)
	}
	logger.Infow("Migration completed successfully", "applied", applied)
}
