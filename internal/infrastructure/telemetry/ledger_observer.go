package telemetry

import (
	"context"
	"errors"
	"fmt"
	"runtime/pprof"
	"time"

	"github.com/grafana/pyroscope-go"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Ledger outcomes recorded on spans and counters.
const (
	OutcomeOK                = "ok"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

// LedgerObserver traces and counts stock ledger operations. Each operation
// gets a "ledger.<op>" span and is counted by op and outcome.
type LedgerObserver struct {
	tracer     trace.Tracer
	operations metric.Int64Counter
	quantity   metric.Int64Counter
	shortages  metric.Int64Counter
	duration   metric.Float64Histogram

	profileLabels bool
}

// NewLedgerObserver creates the instruments on the given providers.
func NewLedgerObserver(tp trace.TracerProvider, mp metric.MeterProvider) (*LedgerObserver, error) {
	meter := mp.Meter(InstrumentationName)
	o := &LedgerObserver{tracer: tp.Tracer(InstrumentationName)}

	var err error
	if o.operations, err = meter.Int64Counter("ledger.operations",
		metric.WithDescription("Ledger operations by op and outcome"),
		metric.WithUnit("{operation}")); err != nil {
		return nil, fmt.Errorf("ledger.operations: %w", err)
	}
	if o.quantity, err = meter.Int64Counter("ledger.quantity",
		metric.WithDescription("Units moved by successful ledger operations"),
		metric.WithUnit("{unit}")); err != nil {
		return nil, fmt.Errorf("ledger.quantity: %w", err)
	}
	if o.shortages, err = meter.Int64Counter("ledger.insufficient_stock",
		metric.WithDescription("Reservations and commits refused for lack of stock"),
		metric.WithUnit("{operation}")); err != nil {
		return nil, fmt.Errorf("ledger.insufficient_stock: %w", err)
	}
	if o.duration, err = meter.Float64Histogram("ledger.duration",
		metric.WithDescription("Ledger operation latency including the row lock"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000)); err != nil {
		return nil, fmt.Errorf("ledger.duration: %w", err)
	}
	return o, nil
}

// WithProfileLabels tags the calling goroutine with a ledger_op profile
// label while each operation runs, so CPU and lock profiles split by op.
func (o *LedgerObserver) WithProfileLabels(on bool) *LedgerObserver {
	o.profileLabels = on
	return o
}

// Begin implements inventory.LedgerObserver.
func (o *LedgerObserver) Begin(ctx context.Context, op inventory.EffectOp, key inventory.StockKey, qty int64) (context.Context, func(error)) {
	start := time.Now()
	parent := ctx
	if o.profileLabels {
		ctx = pprof.WithLabels(ctx, pyroscope.Labels("ledger_op", string(op)))
		pprof.SetGoroutineLabels(ctx)
	}
	ctx, span := o.tracer.Start(ctx, "ledger."+string(op),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("ledger.op", string(op)),
			attribute.String("stock.product_id", key.ProductID.String()),
			attribute.String("stock.warehouse_id", key.WarehouseID.String()),
			attribute.String("stock.key", key.String()),
			attribute.Int64("stock.quantity", qty),
		),
	)

	return ctx, func(err error) {
		outcome := Outcome(err)
		opAttr := attribute.String("op", string(op))
		o.operations.Add(ctx, 1, metric.WithAttributes(opAttr, attribute.String("outcome", outcome)))
		o.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(opAttr))
		switch outcome {
		case OutcomeOK:
			o.quantity.Add(ctx, qty, metric.WithAttributes(opAttr))
		case OutcomeInsufficientStock:
			o.shortages.Add(ctx, 1, metric.WithAttributes(opAttr))
		}
		span.SetAttributes(attribute.String("ledger.outcome", outcome))
		EndSpan(span, err)
		if o.profileLabels {
			pprof.SetGoroutineLabels(parent)
		}
	}
}

// Outcome classifies a ledger error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, shared.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, shared.ErrOptimisticLock):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

var _ inventory.LedgerObserver = (*LedgerObserver)(nil)
