package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LocalDispatcher runs subscribed handlers in-process, in subscription
// order. The relay is its only caller.
type LocalDispatcher struct {
	registry *HandlerRegistry
	logger   *zap.Logger
}

func NewLocalDispatcher(logger *zap.Logger) *LocalDispatcher {
	return &LocalDispatcher{registry: NewHandlerRegistry(), logger: logger}
}

// Subscribe registers h for eventTypes, or for h.EventTypes() when none are
// passed. A handler with no types at all sees every event.
func (d *LocalDispatcher) Subscribe(h shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = h.EventTypes()
	}
	d.registry.Register(h, eventTypes...)
	d.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

func (d *LocalDispatcher) Unsubscribe(h shared.EventHandler) {
	d.registry.Unregister(h)
}

// Publish offers each event to every matching handler. A failing handler
// does not stop the rest; all failures come back joined so the outbox
// retries the entry. Handlers that must not repeat side effects are wrapped
// in IdempotentHandler.
func (d *LocalDispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var failed []error
	for _, ev := range events {
		for _, h := range d.registry.GetHandlers(ev.EventType()) {
			err := d.invoke(ctx, h, ev)
			if err == nil {
				continue
			}
			d.logger.Error("handler failed to process event",
				zap.String("event_type", ev.EventType()),
				zap.Stringer("event_id", ev.EventID()),
				zap.Stringer("aggregate_id", ev.AggregateID()),
				zap.Error(err),
			)
			failed = append(failed, fmt.Errorf("%s: %w", ev.EventType(), err))
		}
	}
	return errors.Join(failed...)
}

func (d *LocalDispatcher) invoke(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", zap.String("event_type", ev.EventType()), zap.Any("panic", r))
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventDispatcher = (*LocalDispatcher)(nil)
