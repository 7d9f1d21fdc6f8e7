package event

import (
	"context"
	"sync/atomic"

	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DedupCounters tallies outcomes across any number of idempotent handlers.
type DedupCounters struct {
	handled atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// DedupSnapshot is a point-in-time copy of DedupCounters.
type DedupSnapshot struct {
	Handled int64 `json:"handled"`
	Skipped int64 `json:"skipped"`
	Failed  int64 `json:"failed"`
}

func (c *DedupCounters) Snapshot() DedupSnapshot {
	return DedupSnapshot{Handled: c.handled.Load(), Skipped: c.skipped.Load(), Failed: c.failed.Load()}
}

// IdempotentHandler claims shared.DeliveryKey(name, event) before running
// the wrapped handler, so a redelivered event reaches it at most once while
// the claim lives. A failed run gives the claim back.
type IdempotentHandler struct {
	name     string
	inner    shared.EventHandler
	store    shared.IdempotencyStore
	cfg      shared.IdempotencyConfig
	counters *DedupCounters
	logger   *zap.Logger
}

type IdempotentOption func(*IdempotentHandler)

func WithIdempotencyConfig(cfg shared.IdempotencyConfig) IdempotentOption {
	return func(h *IdempotentHandler) { h.cfg = cfg }
}

// WithCounters makes the handler report into c instead of private counters.
func WithCounters(c *DedupCounters) IdempotentOption {
	return func(h *IdempotentHandler) { h.counters = c }
}

// NewIdempotentHandler wraps inner under name. Names must be unique per
// process; two handlers sharing a name share their claims.
func NewIdempotentHandler(name string, inner shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentOption) *IdempotentHandler {
	h := &IdempotentHandler{
		name:     name,
		inner:    inner,
		store:    store,
		cfg:      shared.DefaultIdempotencyConfig(),
		counters: &DedupCounters{},
		logger:   logger.With(zap.String("handler", name)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.TTL <= 0 {
		h.cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string { return h.inner.EventTypes() }

func (h *IdempotentHandler) Name() string { return h.name }

func (h *IdempotentHandler) Unwrap() shared.EventHandler { return h.inner }

func (h *IdempotentHandler) Counters() *DedupCounters { return h.counters }

// Handle runs the wrapped handler once per claim. When the store is
// unreachable the event is handled without a claim.
func (h *IdempotentHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	if !h.cfg.Enabled {
		return h.inner.Handle(ctx, ev)
	}

	key := shared.DeliveryKey(h.name, ev.EventID())
	log := h.logger.With(zap.Stringer("event_id", ev.EventID()), zap.String("event_type", ev.EventType()))

	claimed, err := h.store.Claim(ctx, key, h.cfg.TTL)
	if err != nil {
		log.Warn("idempotency store unavailable, handling without a claim", zap.Error(err))
	} else if !claimed {
		h.counters.skipped.Add(1)
		log.Debug("duplicate delivery skipped")
		return nil
	}

	if err := h.inner.Handle(ctx, ev); err != nil {
		h.counters.failed.Add(1)
		if claimed {
			if ferr := h.store.Forget(ctx, key); ferr != nil {
				log.Warn("failed to drop idempotency claim", zap.Error(ferr))
			}
		}
		return err
	}
	h.counters.handled.Add(1)
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
