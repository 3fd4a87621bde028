package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// QueueChat carries the status-change chat posts.
const QueueChat = "order_chat"

const (
	// SQLite allows one writer; more workers only contend for the lock.
	chatWorkers = 1
	// A chat post is a single insert, anything slower is stuck.
	chatJobTimeout = 30 * time.Second
	// Finished jobs are kept for a week to answer "was it posted?".
	chatJobRetention = 7 * 24 * time.Hour
)

// Setup migrates River's tables and returns a client that posts status
// changes from QueueChat into store. Start and Stop are up to the caller.
func Setup(ctx context.Context, db *sql.DB, store domain.MessageStore, logger *slog.Logger) (*Client, error) {
	driver := riversqlite.New(db)
	if err := migrate(ctx, driver); err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewStatusChangedWorker(store, logger))

	client, err := river.NewClient(driver, &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			QueueChat: {MaxWorkers: chatWorkers},
		},
		Workers:                     workers,
		JobTimeout:                  chatJobTimeout,
		CompletedJobRetentionPeriod: chatJobRetention,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}
	return client, nil
}

// migrate brings river_job, river_leader and friends up to date. They sit
// beside the goose-managed order tables in the same file.
func migrate(ctx context.Context, driver *riversqlite.Driver) error {
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("running river migrations: %w", err)
	}
	return nil
}
