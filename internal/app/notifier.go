package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// Compile-time check: AsyncNotifier implements domain.Notifier.
var _ domain.Notifier = (*AsyncNotifier)(nil)

// AsyncNotifier decouples transitions from notification delivery. Events
// are queued in a bounded buffer and handed to next by a single goroutine,
// so delivery order follows enqueue order. A full queue drops the event.
type AsyncNotifier struct {
	next   domain.Notifier
	logger *slog.Logger
	queue  chan domain.StatusChanged

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncNotifier creates a notifier with the given buffer size. Call
// Start before the first event and Close on shutdown.
func NewAsyncNotifier(next domain.Notifier, size int, logger *slog.Logger) *AsyncNotifier {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncNotifier{
		next:   next,
		logger: logger,
		queue:  make(chan domain.StatusChanged, size),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery goroutine. Deliveries run under ctx, which
// should outlive the requests that enqueue events.
func (n *AsyncNotifier) Start(ctx context.Context) {
	go func() {
		defer close(n.done)
		for event := range n.queue {
			if err := n.next.OnStatusChanged(ctx, event); err != nil {
				n.logger.WarnContext(ctx, "delivering status change",
					"order_id", event.OrderID, "to", event.To, "error", err)
			}
		}
	}()
}

// OnStatusChanged enqueues event without blocking.
func (n *AsyncNotifier) OnStatusChanged(ctx context.Context, event domain.StatusChanged) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		n.logger.WarnContext(ctx, "notifier closed, dropping status change", "order_id", event.OrderID)
		return nil
	}

	select {
	case n.queue <- event:
	default:
		n.logger.WarnContext(ctx, "notification queue full, dropping status change",
			"order_id", event.OrderID, "to", event.To)
	}
	return nil
}

// Close stops accepting events and waits until queued ones are delivered
// or ctx expires.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
