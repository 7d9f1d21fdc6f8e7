package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *mockHandler) EventTypes() []string {
	return m.Called().Get(0).([]string)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Forget(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Close() error { return nil }

func lowStockEvent() *inventory.StockBelowThresholdEvent {
	return &inventory.StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockBelowThreshold, inventory.AggregateTypeStockRecord, uuid.New()),
	}
}

func TestIdempotentHandler_RedeliveryIsSkipped(t *testing.T) {
	ev := lowStockEvent()
	inner := new(mockHandler)
	inner.On("Handle", mock.Anything, ev).Return(nil).Once()

	h := NewIdempotentHandler("low_stock", inner, cache.NewMemoryIdempotencyStore(0), zap.NewNop())
	for range 3 {
		require.NoError(t, h.Handle(context.Background(), ev))
	}

	inner.AssertExpectations(t)
	assert.Equal(t, DedupSnapshot{Handled: 1, Skipped: 2}, h.Counters().Snapshot())
}

func TestIdempotentHandler_FailureDropsClaim(t *testing.T) {
	ev := lowStockEvent()
	down := errors.New("mail relay down")
	inner := new(mockHandler)
	inner.On("Handle", mock.Anything, ev).Return(down).Once()
	inner.On("Handle", mock.Anything, ev).Return(nil).Once()
	store := cache.NewMemoryIdempotencyStore(0)

	h := NewIdempotentHandler("low_stock", inner, store, zap.NewNop())

	assert.ErrorIs(t, h.Handle(context.Background(), ev), down)
	assert.False(t, store.Held(shared.DeliveryKey("low_stock", ev.EventID())))
	require.NoError(t, h.Handle(context.Background(), ev))

	inner.AssertExpectations(t)
	assert.Equal(t, DedupSnapshot{Handled: 1, Failed: 1}, h.Counters().Snapshot())
}

func TestIdempotentHandler_ClaimsArePerHandler(t *testing.T) {
	ev := lowStockEvent()
	store := cache.NewMemoryIdempotencyStore(0)
	counters := &DedupCounters{}

	notify := new(mockHandler)
	notify.On("Handle", mock.Anything, ev).Return(nil).Once()
	reorder := new(mockHandler)
	reorder.On("Handle", mock.Anything, ev).Return(nil).Once()

	a := NewIdempotentHandler("notify", notify, store, zap.NewNop(), WithCounters(counters))
	b := NewIdempotentHandler("reorder", reorder, store, zap.NewNop(), WithCounters(counters))
	require.NoError(t, a.Handle(context.Background(), ev))
	require.NoError(t, b.Handle(context.Background(), ev))
	require.NoError(t, b.Handle(context.Background(), ev))

	notify.AssertExpectations(t)
	reorder.AssertExpectations(t)
	assert.Equal(t, DedupSnapshot{Handled: 2, Skipped: 1}, counters.Snapshot())
}

func TestIdempotentHandler_StoreOutage(t *testing.T) {
	ev := lowStockEvent()
	store := new(mockStore)
	store.On("Claim", mock.Anything, "compliance:"+ev.EventID().String(), 90*time.Minute).
		Return(false, errors.New("redis down"))
	inner := new(mockHandler)
	inner.On("Handle", mock.Anything, ev).Return(errors.New("sink full")).Once()

	h := NewIdempotentHandler("compliance", inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{TTL: 90 * time.Minute, Enabled: true}))

	assert.ErrorContains(t, h.Handle(context.Background(), ev), "sink full")
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Forget", mock.Anything, mock.Anything)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	ev := lowStockEvent()
	store := new(mockStore)
	inner := new(mockHandler)
	inner.On("Handle", mock.Anything, ev).Return(nil).Twice()
	inner.On("EventTypes").Return([]string{inventory.EventTypeStockBelowThreshold})

	h := NewIdempotentHandler("low_stock", inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))

	assert.Equal(t, []string{inventory.EventTypeStockBelowThreshold}, h.EventTypes())
	assert.Same(t, inner, h.Unwrap())
	assert.Equal(t, "low_stock", h.Name())
	inner.AssertExpectations(t)
	store.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

type countingHandler struct{ calls atomic.Int32 }

func (h *countingHandler) EventTypes() []string { return nil }

func (h *countingHandler) Handle(context.Context, shared.DomainEvent) error {
	h.calls.Add(1)
	return nil
}

func TestIdempotentHandler_ConcurrentRedelivery(t *testing.T) {
	ev := lowStockEvent()
	inner := &countingHandler{}
	h := NewIdempotentHandler("low_stock", inner, cache.NewMemoryIdempotencyStore(0), zap.NewNop())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Handle(context.Background(), ev)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, int64(19), h.Counters().Snapshot().Skipped)
}
