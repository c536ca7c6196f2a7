package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", NewNotFoundError("customer lead", "10"), http.StatusNotFound, "NOT_FOUND"},
		{"validation", NewValidationError("id", "missing"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid type", NewInvalidRecordTypeError("VENDOR"), http.StatusBadRequest, "INVALID_RECORD_TYPE"},
		{"reconciliation", NewReconciliationFailedError(7, fmt.Errorf("boom")), http.StatusOK, "RECONCILIATION_FAILED"},
		{"unauthorized", NewUnauthorizedError("bad token"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"plain", fmt.Errorf("plain"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
		})
	}
}

func TestAsReconciliationFailed_Wrapped(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := fmt.Errorf("sync customer: %w", NewReconciliationFailedError(500, cause))

	failed, ok := AsReconciliationFailed(err)
	assert.True(t, ok)
	assert.Equal(t, int64(500), failed.Key)
	assert.ErrorIs(t, err, cause)

	_, ok = AsReconciliationFailed(NewNotFoundError("x", "1"))
	assert.False(t, ok)
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "employee with ID '3' not found", NewNotFoundError("employee", "3").Error())
	assert.Equal(t, "address not found", NewNotFoundError("address", "").Error())
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", NewNotFoundError("a", ""))))
	assert.True(t, IsInvalidRecordType(NewInvalidRecordTypeError("x")))
}
