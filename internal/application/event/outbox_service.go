package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultDeadPageSize = 20
	maxDeadPageSize     = 100
)

// OutboxService backs the operator endpoints: backlog counts, dead letter
// inspection and requeueing.
type OutboxService struct {
	store  shared.OutboxStore
	logger *zap.Logger
	now    func() time.Time
}

func NewOutboxService(store shared.OutboxStore, logger *zap.Logger) *OutboxService {
	return &OutboxService{store: store, logger: logger, now: time.Now}
}

// OutboxEntryView is an outbox entry without its payload.
type OutboxEntryView struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateType string     `json:"aggregate_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func viewOf(e *shared.OutboxEntry) OutboxEntryView {
	return OutboxEntryView{
		ID:            e.ID,
		EventID:       e.EventID,
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Status:        string(e.Status),
		Attempts:      e.RetryCount,
		MaxAttempts:   e.MaxRetries,
		LastError:     e.LastError,
		NextRetryAt:   e.NextRetryAt,
		ProcessedAt:   e.ProcessedAt,
		CreatedAt:     e.CreatedAt,
	}
}

// DeadLetterPage is one page of dead entries, oldest first.
type DeadLetterPage struct {
	Entries  []OutboxEntryView `json:"entries"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Pages    int               `json:"pages"`
}

// OutboxStats counts entries per status.
type OutboxStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

func (s *OutboxService) Stats(ctx context.Context) (*OutboxStats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count outbox entries: %w", err)
	}
	stats := &OutboxStats{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// DeadLetters returns one page of dead entries. page starts at 1; pageSize
// defaults to 20 and is capped at 100.
func (s *OutboxService) DeadLetters(ctx context.Context, page, pageSize int) (*DeadLetterPage, error) {
	page = max(page, 1)
	switch {
	case pageSize < 1:
		pageSize = defaultDeadPageSize
	case pageSize > maxDeadPageSize:
		pageSize = maxDeadPageSize
	}

	entries, total, err := s.store.ListDead(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list dead outbox entries: %w", err)
	}
	out := &DeadLetterPage{
		Entries:  make([]OutboxEntryView, 0, len(entries)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, viewOf(e))
	}
	return out, nil
}

// Requeue gives one dead entry a fresh attempt budget. Entries in any
// other state are refused with ErrInvalidTransition.
func (s *OutboxService) Requeue(ctx context.Context, id uuid.UUID) (*OutboxEntryView, error) {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.Requeue(s.now()); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("save outbox entry %s: %w", id, err)
	}

	s.logger.Info("outbox entry requeued",
		zap.Stringer("id", id),
		zap.String("event_type", entry.EventType),
		zap.Stringer("aggregate_id", entry.AggregateID),
	)
	v := viewOf(entry)
	return &v, nil
}

// RequeueAll requeues every dead entry and reports how many moved.
// Requeued entries leave the dead set, so it keeps reading the first page.
func (s *OutboxService) RequeueAll(ctx context.Context) (int64, error) {
	var moved int64
	for {
		batch, _, err := s.store.ListDead(ctx, 1, maxDeadPageSize)
		if err != nil {
			return moved, fmt.Errorf("list dead outbox entries: %w", err)
		}
		progress := 0
		for _, e := range batch {
			if e.Requeue(s.now()) != nil {
				continue
			}
			if err := s.store.Save(ctx, e); err != nil {
				s.logger.Error("failed to requeue outbox entry", zap.Stringer("id", e.ID), zap.Error(err))
				continue
			}
			progress++
		}
		moved += int64(progress)
		if progress == 0 || len(batch) < maxDeadPageSize {
			break
		}
	}
	s.logger.Info("dead outbox entries requeued", zap.Int64("count", moved))
	return moved, nil
}
