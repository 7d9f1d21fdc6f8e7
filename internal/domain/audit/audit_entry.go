// Package audit holds the append-only trail of mutations to tracked entities.
package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
)

// Action names what happened to the entity.
type Action string

const (
	ActionCreate                Action = "create"
	ActionUpdate                Action = "update"
	ActionTransition            Action = "transition"
	ActionDelete                Action = "delete"
	ActionAttemptedModification Action = "attempted_modification"
)

// Entity types tracked by the trail.
const (
	EntitySale          = "Sale"
	EntityTransfer      = "Transfer"
	EntityReturn        = "SalesReturn"
	EntityPurchaseOrder = "PurchaseOrder"
	EntityGoodsReceipt  = "GoodsReceipt"
	EntityStockRecord   = "StockRecord"
	EntityWarehouse     = "Warehouse"
	EntityCustomer      = "Customer"
)

const (
	AggregateTypeAuditEntry = "AuditEntry"
	EventTypeEntryRecorded  = "audit_entry_recorded"
)

// Entry is an immutable audit record. Sequence is assigned by the store and
// orders entries in the order they were written.
type Entry struct {
	Sequence   int64           `json:"sequence"`
	ID         uuid.UUID       `json:"id"`
	Actor      string          `json:"actor"`
	Action     Action          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewEntry builds an entry, marshalling before and after to JSON. A nil
// state is stored as an absent value.
func NewEntry(actor string, action Action, entityType string, entityID uuid.UUID, before, after any) (*Entry, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, fmt.Errorf("%w: audit actor is required", shared.ErrInvalidInput)
	}
	if entityType == "" || entityID == uuid.Nil {
		return nil, fmt.Errorf("%w: audit entity is required", shared.ErrInvalidInput)
	}
	b, err := marshalState(before)
	if err != nil {
		return nil, err
	}
	a, err := marshalState(after)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:         uuid.New(),
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     b,
		After:      a,
		Timestamp:  time.Now(),
	}, nil
}

func marshalState(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit state: %w", err)
	}
	return data, nil
}

// EntryRecordedEvent forwards an entry to the compliance sink after commit.
type EntryRecordedEvent struct {
	shared.BaseDomainEvent
	Entry Entry `json:"entry"`
}

// NewEntryRecordedEvent creates an EntryRecordedEvent
func NewEntryRecordedEvent(e *Entry) *EntryRecordedEvent {
	return &EntryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryRecorded, AggregateTypeAuditEntry, e.ID),
		Entry:           *e,
	}
}
