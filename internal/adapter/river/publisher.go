package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// Compile-time check: Publisher implements domain.Notifier.
var _ domain.Notifier = (*Publisher)(nil)

// StatusChangedArgs carries a status change to the chat worker. River
// serializes it as JSON into its job table. MessageID is fixed at enqueue
// time so a retried job posts the same chat line once.
type StatusChangedArgs struct {
	MessageID   string    `json:"message_id"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ActorID     int64     `json:"actor_id"`
	ActorRole   string    `json:"actor_role"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StatusChangedArgs) Kind() string { return "order.status_changed" }

// InsertOpts routes the job to the chat queue with bounded retries.
func (StatusChangedArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueChat, MaxAttempts: 5}
}

// Event rebuilds the domain event from the job payload.
func (a StatusChangedArgs) Event() domain.StatusChanged {
	return domain.StatusChanged{
		OrderID:     a.OrderID,
		OrderNumber: a.OrderNumber,
		From:        domain.Status(a.From),
		To:          domain.Status(a.To),
		ActorID:     a.ActorID,
		ActorRole:   domain.Role(a.ActorRole),
		OccurredAt:  a.OccurredAt,
	}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.Notifier by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// OnStatusChanged enqueues the change for the chat worker.
func (p *Publisher) OnStatusChanged(ctx context.Context, event domain.StatusChanged) error {
	_, err := p.client.Insert(ctx, StatusChangedArgs{
		MessageID:   uuid.NewString(),
		OrderID:     event.OrderID,
		OrderNumber: event.OrderNumber,
		From:        string(event.From),
		To:          string(event.To),
		ActorID:     event.ActorID,
		ActorRole:   string(event.ActorRole),
		OccurredAt:  event.OccurredAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing status change job: %w", err)
	}
	return nil
}
