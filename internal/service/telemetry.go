package service

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/orderdesk/internal/domain"
	"github.com/xenking/orderdesk/internal/domain/order"
	"github.com/xenking/orderdesk/internal/domain/product"
)

const instrumentationName = "github.com/xenking/orderdesk/internal/service"

// Telemetry holds the tracer and counters shared by the services.
type Telemetry struct {
	tracer trace.Tracer

	ordersCreated   metric.Int64Counter
	ordersClosed    metric.Int64Counter
	productsCreated metric.Int64Counter
	productsDeleted metric.Int64Counter
	rejections      metric.Int64Counter
}

// NewTelemetry creates the service instruments from the given providers.
func NewTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(instrumentationName)
	t := &Telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	if t.ordersCreated, err = meter.Int64Counter("orderdesk.orders.created",
		metric.WithDescription("Orders created"),
	); err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	if t.ordersClosed, err = meter.Int64Counter("orderdesk.orders.closed",
		metric.WithDescription("Orders closed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders closed counter")
	}
	if t.productsCreated, err = meter.Int64Counter("orderdesk.products.created",
		metric.WithDescription("Products created"),
	); err != nil {
		return nil, errors.Wrap(err, "products created counter")
	}
	if t.productsDeleted, err = meter.Int64Counter("orderdesk.products.deleted",
		metric.WithDescription("Products deleted"),
	); err != nil {
		return nil, errors.Wrap(err, "products deleted counter")
	}
	if t.rejections, err = meter.Int64Counter("orderdesk.rejections",
		metric.WithDescription("Mutations rejected by a business rule"),
	); err != nil {
		return nil, errors.Wrap(err, "rejections counter")
	}

	return t, nil
}

// NopTelemetry returns Telemetry that records nothing.
func NopTelemetry() *Telemetry {
	t, err := NewTelemetry(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Telemetry) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// end records err on span, counts it as a rejection when it is a business
// rule failure, and ends the span.
func (t *Telemetry) end(ctx context.Context, span trace.Span, err error) {
	defer span.End()
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if reason := rejectionReason(err); reason != "" {
		t.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// rejectionReason classifies domain failures for metrics and logs. It returns
// an empty string for errors that are not business rule rejections.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, order.ErrProductInAnotherOrder):
		return "product_in_another_order"
	case errors.Is(err, order.ErrDuplicateProduct):
		return "duplicate_product"
	case errors.Is(err, product.ErrInUse):
		return "product_in_use"
	case domain.IsValidation(err):
		return "validation"
	case domain.IsNotFound(err):
		return "not_found"
	default:
		return ""
	}
}
