package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() StockKey {
	return StockKey{ProductID: uuid.New(), WarehouseID: uuid.New()}
}

// keyAt returns a key whose warehouse sorts at position n.
func keyAt(n byte) StockKey {
	var wh uuid.UUID
	wh[15] = n
	return StockKey{ProductID: uuid.New(), WarehouseID: wh}
}

func TestLedger_Receive(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the record with a zero baseline", func(t *testing.T) {
		records := newFakeRecords()
		events := &recordedEvents{}
		ledger := NewLedger(records, events)
		key := testKey()

		rec, err := ledger.Receive(ctx, key, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), rec.QtyOnHand)
		assert.Equal(t, int64(0), rec.QtyReserved)
		assert.Equal(t, []string{EventTypeStockLevelChanged}, events.types())

		changed := events.events[0].(*StockLevelChangedEvent)
		assert.Equal(t, EffectReceive, changed.Operation)
		assert.Equal(t, StockSnapshot{}, changed.Before)
		assert.Equal(t, StockSnapshot{QtyOnHand: 10}, changed.After)
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		ledger := NewLedger(newFakeRecords(), nil)
		_, err := ledger.Receive(ctx, testKey(), 0)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects a bin without a location", func(t *testing.T) {
		ledger := NewLedger(newFakeRecords(), nil)
		key := testKey()
		key.BinID = uuid.New()
		_, err := ledger.Receive(ctx, key, 1)
		assert.ErrorIs(t, err, shared.ErrInconsistentLocation)
	})
}

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("holds available stock", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 10, 0)
		ledger := NewLedger(records, nil)

		rec, err := ledger.Reserve(ctx, key, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), rec.QtyReserved)
		assert.Equal(t, int64(6), rec.Available())
	})

	t.Run("insufficient stock leaves the row unchanged", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 5, 3)
		events := &recordedEvents{}
		ledger := NewLedger(records, events)

		_, err := ledger.Reserve(ctx, key, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		stored, _ := records.FindByKey(ctx, key)
		assert.Equal(t, int64(3), stored.QtyReserved)
		assert.Empty(t, events.events)
		assert.Zero(t, records.saves)
	})

	t.Run("reserving on an unknown key creates an empty row and fails", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		ledger := NewLedger(records, nil)

		_, err := ledger.Reserve(ctx, key, 1)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Contains(t, records.rows, key)
	})

	t.Run("crossing the threshold raises a low stock event", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 10, 0)
		row := records.rows[key]
		row.MinStockLevel = 5
		records.rows[key] = row
		events := &recordedEvents{}
		ledger := NewLedger(records, events)

		_, err := ledger.Reserve(ctx, key, 6)
		require.NoError(t, err)
		assert.Equal(t, []string{EventTypeStockLevelChanged, EventTypeStockBelowThreshold}, events.types())

		low := events.events[1].(*StockBelowThresholdEvent)
		assert.Equal(t, int64(4), low.Available)
		assert.Equal(t, int64(5), low.MinStockLevel)
	})
}

func TestLedger_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("never drops reserved below zero", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 10, 3)
		ledger := NewLedger(records, nil)

		rec, err := ledger.Release(ctx, key, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(0), rec.QtyReserved)
		assert.Equal(t, int64(10), rec.QtyOnHand)
	})

	t.Run("repeating a release is a no-op", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 10, 2)
		events := &recordedEvents{}
		ledger := NewLedger(records, events)

		_, err := ledger.Release(ctx, key, 2)
		require.NoError(t, err)
		_, err = ledger.Release(ctx, key, 2)
		require.NoError(t, err)

		assert.Len(t, events.events, 1)
		assert.Equal(t, 1, records.saves)
	})

	t.Run("missing record is ignored", func(t *testing.T) {
		ledger := NewLedger(newFakeRecords(), nil)
		rec, err := ledger.Release(ctx, testKey(), 1)
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestLedger_Commit(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes the reservation", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 10, 4)
		ledger := NewLedger(records, nil)

		rec, err := ledger.Commit(ctx, key, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(6), rec.QtyOnHand)
		assert.Equal(t, int64(0), rec.QtyReserved)
	})

	t.Run("takes unreserved stock from on hand", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 10, 0)
		ledger := NewLedger(records, nil)

		rec, err := ledger.Commit(ctx, key, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(3), rec.QtyOnHand)
	})

	t.Run("fails beyond on hand", func(t *testing.T) {
		records := newFakeRecords()
		key := testKey()
		records.put(key, 2, 0)
		ledger := NewLedger(records, nil)

		_, err := ledger.Commit(ctx, key, 3)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("missing record is insufficient stock", func(t *testing.T) {
		ledger := NewLedger(newFakeRecords(), nil)
		_, err := ledger.Commit(ctx, testKey(), 1)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}

func TestLedger_ReserveReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	key := testKey()
	records.put(key, 20, 5)
	ledger := NewLedger(records, nil)

	before, _ := records.FindByKey(ctx, key)
	_, err := ledger.Reserve(ctx, key, 8)
	require.NoError(t, err)
	_, err = ledger.Release(ctx, key, 8)
	require.NoError(t, err)

	after, _ := records.FindByKey(ctx, key)
	assert.Equal(t, before.Snapshot(), after.Snapshot())
}

func TestLedger_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a transfer batch", func(t *testing.T) {
		records := newFakeRecords()
		from, to := testKey(), testKey()
		records.put(from, 10, 0)
		ledger := NewLedger(records, nil)

		err := ledger.Apply(ctx, Reserve(from, 3), Commit(from, 3), Receive(to, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(7), records.rows[from].QtyOnHand)
		assert.Equal(t, int64(3), records.rows[to].QtyOnHand)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		records := newFakeRecords()
		a, b := keyAt(1), keyAt(2)
		records.put(a, 1, 0)
		ledger := NewLedger(records, nil)

		err := ledger.Apply(ctx, Reserve(a, 5), Receive(b, 1))
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NotContains(t, records.rows, b)
	})

	t.Run("locks rows in key order whatever the batch order", func(t *testing.T) {
		low, mid, high := keyAt(1), keyAt(2), keyAt(3)
		forward, backward := newFakeRecords(), newFakeRecords()
		for _, r := range []*fakeRecords{forward, backward} {
			r.put(low, 5, 0)
			r.put(mid, 5, 0)
			r.put(high, 5, 0)
		}

		require.NoError(t, NewLedger(forward, nil).Apply(ctx, Reserve(low, 1), Reserve(mid, 1), Reserve(high, 1)))
		require.NoError(t, NewLedger(backward, nil).Apply(ctx, Reserve(high, 1), Reserve(mid, 1), Reserve(low, 1)))
		assert.Equal(t, []StockKey{low, mid, high}, forward.locked)
		assert.Equal(t, forward.locked, backward.locked)
	})

	t.Run("same key effects keep their order", func(t *testing.T) {
		records := newFakeRecords()
		src, dst := keyAt(2), keyAt(1)
		records.put(src, 4, 0)
		ledger := NewLedger(records, nil)

		err := ledger.Apply(ctx, Reserve(src, 4), Commit(src, 4), Receive(dst, 4))
		require.NoError(t, err)
		assert.Zero(t, records.rows[src].QtyOnHand)
		assert.Zero(t, records.rows[src].QtyReserved)
		assert.Equal(t, int64(4), records.rows[dst].QtyOnHand)
		assert.Equal(t, []StockKey{dst, src, src}, records.locked)
	})

	t.Run("unknown operation", func(t *testing.T) {
		ledger := NewLedger(newFakeRecords(), nil)
		err := ledger.Apply(ctx, LedgerEffect{Op: "adjust", Key: testKey(), Quantity: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestLedger_SetMinStockLevel(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	ledger := NewLedger(records, nil)
	key := testKey()

	rec, err := ledger.SetMinStockLevel(ctx, key, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(12), rec.MinStockLevel)
	assert.Equal(t, int64(12), records.rows[key].MinStockLevel)

	_, err = ledger.SetMinStockLevel(ctx, key, -1)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

type observedCall struct {
	op  EffectOp
	qty int64
	err error
}

type recordingObserver struct {
	calls []observedCall
}

func (o *recordingObserver) Begin(ctx context.Context, op EffectOp, _ StockKey, qty int64) (context.Context, func(error)) {
	i := len(o.calls)
	o.calls = append(o.calls, observedCall{op: op, qty: qty})
	return ctx, func(err error) { o.calls[i].err = err }
}

func TestLedger_Observer(t *testing.T) {
	ctx := context.Background()
	records := newFakeRecords()
	key := testKey()
	obs := &recordingObserver{}
	ledger := NewLedger(records, nil, WithObserver(obs))

	_, err := ledger.Receive(ctx, key, 2)
	require.NoError(t, err)
	_, err = ledger.Reserve(ctx, key, 5)
	require.Error(t, err)

	require.Len(t, obs.calls, 2)
	assert.Equal(t, EffectReceive, obs.calls[0].op)
	assert.NoError(t, obs.calls[0].err)
	assert.Equal(t, EffectReserve, obs.calls[1].op)
	assert.Equal(t, int64(5), obs.calls[1].qty)
	assert.ErrorIs(t, obs.calls[1].err, shared.ErrInsufficientStock)
}

func TestStockRecord_CheckInvariant(t *testing.T) {
	tests := []struct {
		name     string
		onHand   int64
		reserved int64
		wantErr  bool
	}{
		{"empty", 0, 0, false},
		{"fully reserved", 5, 5, false},
		{"over reserved", 5, 6, true},
		{"negative reserved", 5, -1, true},
		{"negative on hand", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &StockRecord{QtyOnHand: tt.onHand, QtyReserved: tt.reserved}
			err := r.CheckInvariant()
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInsufficientStock)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
