package shared

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct{ BaseDomainEvent }

func newPing() *pingEvent {
	return &pingEvent{NewBaseDomainEvent("ping", "Ping", uuid.New())}
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 10 * time.Second}

	tests := map[int]time.Duration{
		0: 0,
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		4: 8 * time.Second,
		5: 10 * time.Second,
		9: 10 * time.Second,
	}
	for failures, want := range tests {
		assert.Equal(t, want, p.Delay(failures), "failures=%d", failures)
	}

	uncapped := RetryPolicy{BaseDelay: time.Millisecond}
	assert.Equal(t, 1024*time.Millisecond, uncapped.Delay(11))
}

func TestNewOutboxEntry(t *testing.T) {
	ev := newPing()
	e := NewOutboxEntry(ev, []byte(`{}`), 0)

	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.Equal(t, ev.EventID(), e.EventID)
	assert.Equal(t, "Ping", e.AggregateType)
	assert.Equal(t, DefaultRetryPolicy().MaxAttempts, e.MaxRetries)
	assert.Equal(t, 3, NewOutboxEntry(ev, nil, 3).MaxRetries)
}

func TestOutboxEntry_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Minute, MaxDelay: time.Hour}
	e := NewOutboxEntry(newPing(), nil, policy.MaxAttempts)
	require.True(t, e.Due(now))

	e.Status = OutboxStatusProcessing
	assert.False(t, e.Due(now))

	e.Failed(errors.New("handler down"), policy, now)
	assert.Equal(t, OutboxStatusFailed, e.Status)
	assert.Equal(t, 1, e.RetryCount)
	require.NotNil(t, e.NextRetryAt)
	assert.Equal(t, now.Add(time.Minute), *e.NextRetryAt)
	assert.False(t, e.Due(now.Add(30*time.Second)))
	assert.True(t, e.Due(now.Add(time.Minute)))

	e.Failed(errors.New("still down"), policy, now.Add(time.Minute))
	assert.Equal(t, OutboxStatusDead, e.Status)
	assert.Nil(t, e.NextRetryAt)
	assert.Equal(t, "still down", e.LastError)
	assert.False(t, e.Due(now.Add(time.Hour)))

	require.NoError(t, e.Requeue(now.Add(time.Hour)))
	assert.Equal(t, OutboxStatusPending, e.Status)
	assert.Zero(t, e.RetryCount)
	assert.Empty(t, e.LastError)

	e.Delivered(now.Add(2 * time.Hour))
	assert.Equal(t, OutboxStatusSent, e.Status)
	require.NotNil(t, e.ProcessedAt)
	assert.ErrorIs(t, e.Requeue(now), ErrInvalidTransition)
}

func TestDeliveryKey(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	assert.Equal(t, "replenishment:7c9e6679-7425-40de-944b-e07fc1f90ae7", DeliveryKey("replenishment", id))
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	root := NewBaseAggregateRoot()
	assert.Equal(t, 1, root.Version)

	first, second := newPing(), newPing()
	root.AddDomainEvent(first)
	root.AddDomainEvent(second)
	root.IncrementVersion()

	assert.Equal(t, []DomainEvent{first, second}, root.GetDomainEvents())
	assert.Equal(t, 2, root.Version)
	root.ClearDomainEvents()
	assert.Empty(t, root.GetDomainEvents())
}
