package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/fabflow/internal/domain"
)

const tracerName = "github.com/neomorfeo/fabflow/internal/adapter/otel"

// TracingOrderRepository wraps a domain.OrderRepository with OpenTelemetry tracing.
// Each method creates a span with order attributes and records errors.
type TracingOrderRepository struct {
	next   domain.OrderRepository
	tracer trace.Tracer
}

// Compile-time check: TracingOrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*TracingOrderRepository)(nil)

// NewTracingOrderRepository creates a tracing decorator around the given repository.
func NewTracingOrderRepository(next domain.OrderRepository) *TracingOrderRepository {
	return &TracingOrderRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Create",
		trace.WithAttributes(
			attribute.Int64("order.creator_id", order.CreatorID),
			attribute.String("order.platform", order.PlatformCode),
		),
	)
	defer span.End()

	created, err := r.next.Create(ctx, order)
	if err != nil {
		recordError(span, err)
		return created, err
	}
	span.SetAttributes(
		attribute.Int64("order.id", created.ID),
		attribute.String("order.number", created.Number),
	)
	return created, nil
}

func (r *TracingOrderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID",
		trace.WithAttributes(attribute.Int64("order.id", id)),
	)
	defer span.End()

	order, err := r.next.GetByID(ctx, id)
	if err != nil {
		recordError(span, err)
	}
	return order, err
}

func (r *TracingOrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.PlatformCode != "" {
		span.SetAttributes(attribute.String("filter.platform", filter.PlatformCode))
	}
	if filter.OrCreatorCompany != "" {
		span.SetAttributes(attribute.String("filter.or_company", filter.OrCreatorCompany))
	}

	orders, err := r.next.List(ctx, filter)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(orders)))
	}
	return orders, err
}

func (r *TracingOrderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Update",
		trace.WithAttributes(
			attribute.Int64("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
			attribute.Int64("order.version", order.Version),
		),
	)
	defer span.End()

	updated, err := r.next.Update(ctx, order)
	if err != nil {
		recordError(span, err)
	}
	return updated, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
