package shared

import "errors"

// DomainError is a business rule failure with a stable, machine readable
// code. The ops API reports the code to callers and maps it to a status.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// Is matches any DomainError with the same code, so a copy carrying a more
// specific message still satisfies errors.Is(err, ErrNotFound).
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	return errors.As(target, &other) && other.Code == e.Code
}

var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists     = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrOptimisticLock    = NewDomainError("OPTIMISTIC_LOCK_FAILED", "Resource was modified by another process")
	ErrInvalidTransition = NewDomainError("INVALID_TRANSITION", "State transition not allowed")

	// Ledger and allocation failures.
	ErrInsufficientStock        = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrLockedRecordModification = NewDomainError("LOCKED_RECORD_MODIFICATION", "Record is locked and cannot be modified")
	ErrInconsistentLocation     = NewDomainError("INCONSISTENT_LOCATION", "Location does not belong to the stated parent")
	ErrNoWarehouseAvailable     = NewDomainError("NO_WAREHOUSE_AVAILABLE", "No warehouse has sufficient available stock")
)

// ErrorCode is the code of the first DomainError in err's chain, or "".
func ErrorCode(err error) string {
	if de := (*DomainError)(nil); errors.As(err, &de) {
		return de.Code
	}
	return ""
}
