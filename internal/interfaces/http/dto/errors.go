package dto

import (
	"net/http"

	"github.com/retailops/backend/internal/domain/shared"
)

// ErrCodeInternal is reported for errors that carry no domain code
const ErrCodeInternal = "INTERNAL"

// ErrCodeBadRequest is reported for malformed paths and queries
const ErrCodeBadRequest = "BAD_REQUEST"

var statusByCode = map[string]int{
	shared.ErrNotFound.Code:                 http.StatusNotFound,
	shared.ErrAlreadyExists.Code:            http.StatusConflict,
	shared.ErrInvalidInput.Code:             http.StatusBadRequest,
	shared.ErrOptimisticLock.Code:           http.StatusConflict,
	shared.ErrInsufficientStock.Code:        http.StatusUnprocessableEntity,
	shared.ErrInvalidTransition.Code:        http.StatusUnprocessableEntity,
	shared.ErrLockedRecordModification.Code: http.StatusUnprocessableEntity,
	shared.ErrInconsistentLocation.Code:     http.StatusUnprocessableEntity,
	shared.ErrNoWarehouseAvailable.Code:     http.StatusUnprocessableEntity,
	ErrCodeBadRequest:                       http.StatusBadRequest,
}

// HTTPStatus maps err to a status code and the code reported to the caller.
// Errors without a domain code are internal.
func HTTPStatus(err error) (int, string) {
	code := shared.ErrorCode(err)
	if status, ok := statusByCode[code]; ok {
		return status, code
	}
	return http.StatusInternalServerError, ErrCodeInternal
}
