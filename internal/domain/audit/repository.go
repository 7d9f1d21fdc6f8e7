package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository appends and reads audit entries. There is deliberately no
// update or delete.
type Repository interface {
	// Append stores the entry and sets its Sequence.
	Append(ctx context.Context, entry *Entry) error
	// ListForEntity returns an entity's entries in sequence order.
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]Entry, error)
	// CountForEntity counts an entity's entries, optionally of one action.
	CountForEntity(ctx context.Context, entityType string, entityID uuid.UUID, action Action) (int64, error)
}
