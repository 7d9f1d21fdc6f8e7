package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Append(ctx context.Context, entry *Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockRepository) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]Entry, error) {
	args := m.Called(ctx, entityType, entityID)
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *mockRepository) CountForEntity(ctx context.Context, entityType string, entityID uuid.UUID, action Action) (int64, error) {
	args := m.Called(ctx, entityType, entityID, action)
	return args.Get(0).(int64), args.Error(1)
}

type captureEvents struct {
	events []shared.DomainEvent
}

func (c *captureEvents) Record(_ context.Context, events ...shared.DomainEvent) error {
	c.events = append(c.events, events...)
	return nil
}

func TestNewEntry(t *testing.T) {
	id := uuid.New()
	e, err := NewEntry("alice", ActionUpdate, EntitySale, id, map[string]int{"qty": 1}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty":1}`, string(e.Before))
	assert.Nil(t, e.After)
	assert.False(t, e.Timestamp.IsZero())

	_, err = NewEntry(" ", ActionUpdate, EntitySale, id, nil, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewEntry("alice", ActionUpdate, EntitySale, uuid.Nil, nil, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = NewEntry("alice", ActionUpdate, EntitySale, id, make(chan int), nil)
	assert.Error(t, err)
}

func TestRecorder_Record(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("appends and queues the compliance event", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("Append", ctx, mock.MatchedBy(func(e *Entry) bool {
			return e.Action == ActionTransition && e.EntityID == id
		})).Return(nil).Once()
		events := &captureEvents{}

		entry, err := NewRecorder(repo, events).Record(ctx, "bob", ActionTransition, EntityTransfer, id, nil, map[string]string{"status": "approved"})
		require.NoError(t, err)
		require.Len(t, events.events, 1)
		recorded := events.events[0].(*EntryRecordedEvent)
		assert.Equal(t, entry.ID, recorded.AggregateID())
		assert.Equal(t, EventTypeEntryRecorded, recorded.EventType())
		repo.AssertExpectations(t)
	})

	t.Run("append failure is returned and nothing is queued", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("Append", ctx, mock.Anything).Return(errors.New("disk full"))
		events := &captureEvents{}

		_, err := NewRecorder(repo, events).Record(ctx, "bob", ActionCreate, EntitySale, id, nil, nil)
		assert.ErrorContains(t, err, "disk full")
		assert.Empty(t, events.events)
	})

	t.Run("attempts keep stored and rejected values", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("Append", ctx, mock.Anything).Return(nil)

		entry, err := NewRecorder(repo, nil).RecordAttempt(ctx, "eve", EntitySale, id,
			map[string]string{"total": "26.50"}, map[string]string{"total": "0"})
		require.NoError(t, err)
		assert.Equal(t, ActionAttemptedModification, entry.Action)
		assert.JSONEq(t, `{"total":"26.50"}`, string(entry.Before))
		assert.JSONEq(t, `{"total":"0"}`, string(entry.After))
	})
}
