package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/audit"
	"github.com/retailops/backend/internal/domain/inventory"
	"github.com/retailops/backend/internal/domain/partner"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSerializer_Register(t *testing.T) {
	serializer := NewEventSerializer()

	serializer.Register(trade.EventTypeSaleCreated, &trade.SaleCreatedEvent{})

	assert.True(t, serializer.IsRegistered(trade.EventTypeSaleCreated))
	assert.False(t, serializer.IsRegistered("sale_exploded"))
	assert.Equal(t, []string{trade.EventTypeSaleCreated}, serializer.RegisteredTypes())
}

func TestRegisterAllEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	for _, eventType := range []string{
		inventory.EventTypeStockLevelChanged,
		inventory.EventTypeStockBelowThreshold,
		inventory.EventTypeTransferRequested,
		inventory.EventTypeTransferReceived,
		inventory.EventTypeTransferCancelled,
		trade.EventTypeSaleCreated,
		trade.EventTypeSaleCompleted,
		trade.EventTypeSaleCancelled,
		trade.EventTypeSaleRefunded,
		trade.EventTypeReturnProcessed,
		trade.EventTypeGoodsReceived,
		partner.EventTypeStoreCreditChanged,
		audit.EventTypeEntryRecorded,
	} {
		assert.True(t, serializer.IsRegistered(eventType), eventType)
	}
}

func TestEventSerializer_RoundTrip_StockLevelChanged(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	key := inventory.StockKey{ProductID: uuid.New(), WarehouseID: uuid.New(), BinID: uuid.New()}
	original := &inventory.StockLevelChangedEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:        uuid.New(),
			Type:      inventory.EventTypeStockLevelChanged,
			At:        time.Now().UTC().Truncate(time.Second),
			Aggregate: shared.AggregateRef{Type: inventory.AggregateTypeStockRecord, ID: uuid.New()},
		},
		Key:       key,
		Operation: inventory.EffectReserve,
		Quantity:  4,
		Before:    inventory.StockSnapshot{QtyOnHand: 10},
		After:     inventory.StockSnapshot{QtyOnHand: 10, QtyReserved: 4},
	}

	data, err := serializer.Serialize(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"operation":"reserve"`)

	decoded, err := serializer.Deserialize(inventory.EventTypeStockLevelChanged, data)
	require.NoError(t, err)

	event, ok := decoded.(*inventory.StockLevelChangedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.AggregateID(), event.AggregateID())
	assert.True(t, original.OccurredAt().Equal(event.OccurredAt()))
	assert.Equal(t, key, event.Key)
	assert.Equal(t, int64(6), event.After.Available())
}

func TestEventSerializer_RoundTrip_StoreCredit(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	original := &partner.StoreCreditChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(partner.EventTypeStoreCreditChanged, partner.AggregateTypeCustomer, uuid.New()),
		Code:            "C-001",
		OldBalance:      decimal.RequireFromString("5.00"),
		NewBalance:      decimal.RequireFromString("17.50"),
		Reason:          "exchange RET-1",
	}

	data, err := serializer.Serialize(original)
	require.NoError(t, err)
	decoded, err := serializer.Deserialize(partner.EventTypeStoreCreditChanged, data)
	require.NoError(t, err)

	event := decoded.(*partner.StoreCreditChangedEvent)
	assert.True(t, original.NewBalance.Equal(event.NewBalance))
	assert.Equal(t, "exchange RET-1", event.Reason)
}

func TestEventSerializer_Deserialize_UnknownType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("UnknownEvent", []byte(`{}`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_Deserialize_InvalidJSON(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	_, err := serializer.Deserialize(trade.EventTypeSaleCreated, []byte(`invalid json`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}
