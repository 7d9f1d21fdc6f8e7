package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdempotencyStore holds short-lived claims on delivery keys. The outbox
// delivers at least once, so handlers that notify people or call out of
// process claim a key before acting.
type IdempotencyStore interface {
	// Claim takes key for ttl. It reports false while an earlier claim on
	// the same key has not expired.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget drops a claim so the next delivery runs again.
	Forget(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig controls handler deduplication. A zero TTL falls back
// to 24h.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}

// DeliveryKey scopes a claim to one handler so another handler's success
// does not hide a failed delivery.
func DeliveryKey(handler string, eventID uuid.UUID) string {
	return handler + ":" + eventID.String()
}
