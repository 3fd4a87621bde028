package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// StatusChangedWorker posts a chat message announcing each status change.
type StatusChangedWorker struct {
	river.WorkerDefaults[StatusChangedArgs]

	store  domain.MessageStore
	logger *slog.Logger
}

// NewStatusChangedWorker creates a worker writing to store.
func NewStatusChangedWorker(store domain.MessageStore, logger *slog.Logger) *StatusChangedWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusChangedWorker{store: store, logger: logger}
}

// Work appends the chat line. Errors make River retry the job.
func (w *StatusChangedWorker) Work(ctx context.Context, job *river.Job[StatusChangedArgs]) error {
	msg := domain.NewStatusMessage(job.Args.Event())
	if job.Args.MessageID != "" {
		msg.ID = job.Args.MessageID
	}
	if !job.Args.OccurredAt.IsZero() {
		msg.CreatedAt = job.Args.OccurredAt
	}

	w.logger.InfoContext(ctx, "posting status change",
		"order_id", job.Args.OrderID,
		"order_number", job.Args.OrderNumber,
		"to", job.Args.To,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	return w.store.AppendMessage(ctx, msg)
}
