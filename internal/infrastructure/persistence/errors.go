package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/retailops/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateError maps driver errors onto domain sentinels. Unknown errors
// pass through unchanged.
func translateError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, what)
	}
	if isLockConflict(err) {
		return fmt.Errorf("%w: %s: %v", shared.ErrOptimisticLock, what, err)
	}
	return err
}

// isLockConflict reports a transaction the server aborted to break a lock
// cycle. Callers see it as a concurrent modification and may retry.
func isLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDeadlockDetected || pgErr.Code == pgSerializationFailure
	}
	return false
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	// sqlite reports constraint failures only through the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func optimisticLockError(what string, id fmt.Stringer, version int) error {
	return fmt.Errorf("%w: %s %s was modified by another transaction (expected version %d)",
		shared.ErrOptimisticLock, what, id, version)
}
