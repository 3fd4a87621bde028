package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/fabflow/internal/domain"
)

// TracingNotifier wraps a domain.Notifier with a span per status change
// and counts transitions by source and target status.
type TracingNotifier struct {
	next        domain.Notifier
	tracer      trace.Tracer
	transitions metric.Int64Counter
}

// Compile-time check: TracingNotifier implements domain.Notifier.
var _ domain.Notifier = (*TracingNotifier)(nil)

// NewTracingNotifier creates a tracing decorator around the given notifier.
func NewTracingNotifier(next domain.Notifier) (*TracingNotifier, error) {
	counter, err := otel.Meter(tracerName).Int64Counter(transitionsMetric,
		metric.WithDescription("Order status changes by source and target status."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}

	return &TracingNotifier{
		next:        next,
		tracer:      otel.Tracer(tracerName),
		transitions: counter,
	}, nil
}

func (n *TracingNotifier) OnStatusChanged(ctx context.Context, event domain.StatusChanged) error {
	attrs := []attribute.KeyValue{
		attribute.String("order.status.from", string(event.From)),
		attribute.String("order.status.to", string(event.To)),
		attribute.String("actor.role", string(event.ActorRole)),
	}

	ctx, span := n.tracer.Start(ctx, "Notifier.OnStatusChanged",
		trace.WithAttributes(append(attrs,
			attribute.Int64("order.id", event.OrderID),
			attribute.String("order.number", event.OrderNumber),
		)...),
	)
	defer span.End()

	n.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))

	err := n.next.OnStatusChanged(ctx, event)
	if err != nil {
		recordError(span, err)
	}
	return err
}
