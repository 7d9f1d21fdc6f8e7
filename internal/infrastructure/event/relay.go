package event

import (
	"context"
	"time"

	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// RelayConfig tunes the outbox relay.
type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// Claims older than StaleAfter are handed back to PENDING.
	StaleAfter time.Duration
	// Sent entries older than Retention are purged; zero keeps them.
	Retention            time.Duration
	HousekeepingInterval time.Duration
	Retry                shared.RetryPolicy
}

func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		BatchSize:            100,
		PollInterval:         5 * time.Second,
		StaleAfter:           5 * time.Minute,
		Retention:            7 * 24 * time.Hour,
		HousekeepingInterval: time.Hour,
		Retry:                shared.DefaultRetryPolicy(),
	}
}

// RelayConfigFrom overlays the event section of the application config on
// the defaults. Unset values keep their default.
func RelayConfigFrom(cfg config.EventConfig) RelayConfig {
	out := DefaultRelayConfig()
	if cfg.BatchSize > 0 {
		out.BatchSize = cfg.BatchSize
	}
	if cfg.PollInterval > 0 {
		out.PollInterval = cfg.PollInterval
	}
	if cfg.StaleClaimAfter > 0 {
		out.StaleAfter = cfg.StaleClaimAfter
	}
	if cfg.MaxRetries > 0 {
		out.Retry.MaxAttempts = cfg.MaxRetries
	}
	if cfg.RetryBaseDelay > 0 {
		out.Retry.BaseDelay = cfg.RetryBaseDelay
	}
	if cfg.RetryMaxDelay > 0 {
		out.Retry.MaxDelay = cfg.RetryMaxDelay
	}
	out.Retention = 0
	if cfg.CleanupEnabled {
		out.Retention = cfg.CleanupRetention
		if out.Retention <= 0 {
			out.Retention = DefaultRelayConfig().Retention
		}
	}
	return out
}

// Relay moves committed outbox entries to the dispatcher. Delivery is at
// least once: an entry is SENT only after every handler returned nil.
type Relay struct {
	store      shared.OutboxStore
	dispatcher shared.EventDispatcher
	serializer *EventSerializer
	cfg        RelayConfig
	logger     *zap.Logger
	now        func() time.Time
}

func NewRelay(store shared.OutboxStore, dispatcher shared.EventDispatcher, serializer *EventSerializer, cfg RelayConfig, logger *zap.Logger) *Relay {
	return &Relay{
		store:      store,
		dispatcher: dispatcher,
		serializer: serializer,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run polls until ctx is cancelled. Housekeeping runs once up front so
// claims orphaned by an earlier crash are released before the first poll.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started",
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("max_attempts", r.cfg.Retry.MaxAttempts),
	)
	r.Housekeep(ctx)

	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()
	house := time.NewTicker(r.cfg.HousekeepingInterval)
	defer house.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-poll.C:
			r.Drain(ctx)
		case <-house.C:
			r.Housekeep(ctx)
		}
	}
}

// Drain delivers due entries batch by batch until none are left and
// returns how many were sent.
func (r *Relay) Drain(ctx context.Context) int {
	sent := 0
	for ctx.Err() == nil {
		batch, err := r.store.ClaimDue(ctx, r.now(), r.cfg.BatchSize)
		if err != nil {
			r.logger.Error("failed to claim outbox entries", zap.Error(err))
			return sent
		}
		for _, entry := range batch {
			if r.deliver(ctx, entry) {
				sent++
			}
		}
		if len(batch) < r.cfg.BatchSize {
			return sent
		}
	}
	return sent
}

func (r *Relay) deliver(ctx context.Context, entry *shared.OutboxEntry) bool {
	log := r.logger.With(
		zap.Stringer("event_id", entry.EventID),
		zap.String("event_type", entry.EventType),
		zap.Int("attempt", entry.RetryCount+1),
	)

	ev, err := r.serializer.Deserialize(entry.EventType, entry.Payload)
	if err == nil {
		err = r.dispatcher.Publish(ctx, ev)
	}
	if err != nil {
		entry.Failed(err, r.cfg.Retry, r.now())
		if entry.Status == shared.OutboxStatusDead {
			log.Warn("outbox entry is dead",
				zap.String("aggregate_type", entry.AggregateType),
				zap.Stringer("aggregate_id", entry.AggregateID),
				zap.String("last_error", entry.LastError),
			)
		} else {
			log.Error("outbox delivery failed", zap.Timep("next_retry_at", entry.NextRetryAt), zap.Error(err))
		}
		if saveErr := r.store.Save(ctx, entry); saveErr != nil {
			log.Error("failed to record delivery failure", zap.Error(saveErr))
		}
		return false
	}

	entry.Delivered(r.now())
	if err := r.store.Save(ctx, entry); err != nil {
		// The claim goes stale and the entry is delivered again later.
		log.Error("failed to mark outbox entry sent", zap.Error(err))
		return false
	}
	log.Debug("event delivered")
	return true
}

// Housekeep releases stale claims and purges old sent entries.
func (r *Relay) Housekeep(ctx context.Context) {
	now := r.now()
	if r.cfg.StaleAfter > 0 {
		n, err := r.store.ReleaseStale(ctx, now.Add(-r.cfg.StaleAfter))
		switch {
		case err != nil:
			r.logger.Error("failed to release stale outbox claims", zap.Error(err))
		case n > 0:
			r.logger.Warn("released stale outbox claims", zap.Int64("count", n))
		}
	}
	if r.cfg.Retention > 0 {
		cutoff := now.Add(-r.cfg.Retention)
		n, err := r.store.PurgeSent(ctx, cutoff)
		switch {
		case err != nil:
			r.logger.Error("failed to purge sent outbox entries", zap.Error(err))
		case n > 0:
			r.logger.Info("purged sent outbox entries", zap.Int64("count", n), zap.Time("cutoff", cutoff))
		}
	}
}
