package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/fabflow/internal/adapter/fsm"
	"github.com/neomorfeo/fabflow/internal/adapter/otel"
	"github.com/neomorfeo/fabflow/internal/adapter/river"
	"github.com/neomorfeo/fabflow/internal/adapter/sqlite"
	"github.com/neomorfeo/fabflow/internal/app"
	"github.com/neomorfeo/fabflow/internal/domain"
)

// stack is the wired application: storage, queue and services.
type stack struct {
	db       *sql.DB
	queue    *river.Client
	orders   *app.OrderService
	engine   *app.WorkflowEngine
	messages *sqlite.MessageStore
}

// openStack opens the instrumented database, runs migrations and wires the
// services. notify wraps the River publisher before it reaches the engine;
// serve uses it to put the async buffer in front of the queue.
func openStack(ctx context.Context, cfg config, logger *slog.Logger, notify func(domain.Notifier) domain.Notifier) (*stack, error) {
	db, err := otel.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	profiles := sqlite.NewProfileRepository(db)
	platforms := sqlite.NewPlatformDirectory(db)
	messages := sqlite.NewMessageStore(db)

	queue, err := river.Setup(ctx, db, messages, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("river: %w", err)
	}

	var publisher domain.Notifier = river.NewPublisher(queue)
	if notify != nil {
		publisher = notify(publisher)
	}
	notifier, err := otel.NewTracingNotifier(publisher)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("notifier metrics: %w", err)
	}

	orders := otel.NewTracingOrderRepository(repo)

	return &stack{
		db:       db,
		queue:    queue,
		orders:   app.NewOrderService(orders, profiles, platforms, messages),
		engine:   app.NewWorkflowEngine(orders, profiles, platforms, fsm.New(), notifier, logger),
		messages: messages,
	}, nil
}

func (s *stack) Close() error {
	return s.db.Close()
}
