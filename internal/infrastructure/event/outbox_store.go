package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxStore keeps outbox entries in the outbox_entries table.
type GormOutboxStore struct {
	db *gorm.DB
}

func NewGormOutboxStore(db *gorm.DB) *GormOutboxStore {
	return &GormOutboxStore{db: db}
}

// Append inserts entries. Called with the business transaction's handle.
func (s *GormOutboxStore) Append(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OutboxEntryModel, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.NewOutboxEntryModel(e))
	}
	return s.db.WithContext(ctx).Create(rows).Error
}

// ClaimDue selects due rows and flips them to PROCESSING in one transaction.
// On postgres the select takes row locks with SKIP LOCKED so relays running
// in several processes split the backlog instead of colliding. SQLite
// serializes writers, which gives the same guarantee.
func (s *GormOutboxStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*shared.OutboxEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	var rows []models.OutboxEntryModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ? OR (status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?))",
			shared.OutboxStatusPending, shared.OutboxStatusFailed, now).
			Order("created_at ASC").
			Limit(limit)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked})
		}
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
			rows[i].Status = shared.OutboxStatusProcessing
			rows[i].UpdatedAt = now
		}
		return tx.Model(&models.OutboxEntryModel{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"status": shared.OutboxStatusProcessing, "updated_at": now}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("claim outbox entries: %w", err)
	}
	return models.OutboxEntries(rows), nil
}

func (s *GormOutboxStore) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.OutboxEntryModel{}).
		Where("status = ? AND updated_at < ?", shared.OutboxStatusProcessing, before).
		Updates(map[string]any{"status": shared.OutboxStatusPending, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

// Save writes every column of an existing entry.
func (s *GormOutboxStore) Save(ctx context.Context, entry *shared.OutboxEntry) error {
	entry.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(models.NewOutboxEntryModel(entry)).Error
}

func (s *GormOutboxStore) Get(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	var row models.OutboxEntryModel
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: outbox entry %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.Entry(), nil
}

// ListDead pages through dead entries, oldest first. Pages start at 1.
func (s *GormOutboxStore) ListDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	dead := s.db.WithContext(ctx).
		Model(&models.OutboxEntryModel{}).
		Where("status = ?", shared.OutboxStatusDead)

	var total int64
	if err := dead.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = max(page, 1)
	var rows []models.OutboxEntryModel
	if err := s.db.WithContext(ctx).
		Where("status = ?", shared.OutboxStatusDead).
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return models.OutboxEntries(rows), total, nil
}

func (s *GormOutboxStore) CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error) {
	var rows []struct {
		Status shared.OutboxStatus
		N      int64
	}
	if err := s.db.WithContext(ctx).
		Model(&models.OutboxEntryModel{}).
		Select("status, count(*) AS n").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.OutboxStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

func (s *GormOutboxStore) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", shared.OutboxStatusSent, before).
		Delete(&models.OutboxEntryModel{})
	return res.RowsAffected, res.Error
}

var _ shared.OutboxStore = (*GormOutboxStore)(nil)
