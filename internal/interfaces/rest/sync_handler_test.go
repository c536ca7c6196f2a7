package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/interfaces/rest"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// MockSyncService mocks the SyncService interface
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*models.SyncResult)
	return result, args.Error(1)
}

func (m *MockSyncService) SyncAs(ctx context.Context, req models.SyncRequest, stage models.Stage) (*models.SyncResult, error) {
	args := m.Called(ctx, req, stage)
	result, _ := args.Get(0).(*models.SyncResult)
	return result, args.Error(1)
}

func setupSyncRouter(svc rest.SyncService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := rest.NewSyncHandler(svc)
	r.POST("/v1/users/:id", h.SyncUser)
	r.POST("/v1/customer-leads/:id/netsuite", h.SyncCustomer)
	r.POST("/v1/employees/:id/netsuite", h.SyncEmployee)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) models.SyncResult {
	t.Helper()
	var result models.SyncResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestSyncHandler_SyncUser(t *testing.T) {
	body := `{"type":"lead","fields":{"id":"1001","firstname":"Ana"}}`
	isLead := mock.MatchedBy(func(req models.SyncRequest) bool {
		return req.Type == "lead" && req.ID == "1001" && req.Fields["firstname"] == "Ana"
	})

	t.Run("reconciled", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("Sync", mock.Anything, isLead).Return(&models.SyncResult{Success: true, ID: 1001, Created: true}, nil).Once()

		w := postJSON(setupSyncRouter(svc), "/v1/users/1001", body)

		assert.Equal(t, http.StatusOK, w.Code)
		result := decodeResult(t, w)
		assert.True(t, result.Success)
		assert.True(t, result.Created)
		svc.AssertExpectations(t)
	})

	t.Run("soft failure answers 200", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("Sync", mock.Anything, isLead).Return(&models.SyncResult{
			Success: false,
			ID:      1001,
			Code:    "RECONCILIATION_FAILED",
		}, nil).Once()

		w := postJSON(setupSyncRouter(svc), "/v1/users/1001", body)

		assert.Equal(t, http.StatusOK, w.Code)
		result := decodeResult(t, w)
		assert.False(t, result.Success)
		assert.Equal(t, int64(1001), result.ID)
		assert.Equal(t, "RECONCILIATION_FAILED", result.Code)
	})

	t.Run("rejected type answers 400", func(t *testing.T) {
		svc := new(MockSyncService)
		err := errors.NewInvalidRecordTypeError("vendor")
		svc.On("Sync", mock.Anything, mock.Anything).Return(&models.SyncResult{
			Success: false,
			Code:    err.Code(),
			Error:   err.Error(),
		}, err).Once()

		w := postJSON(setupSyncRouter(svc), "/v1/users/1001", `{"type":"vendor","fields":{"id":"1001"}}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		result := decodeResult(t, w)
		assert.False(t, result.Success)
		assert.Equal(t, "INVALID_RECORD_TYPE", result.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockSyncService)

		w := postJSON(setupSyncRouter(svc), "/v1/users/1001", `{"type":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, decodeResult(t, w).Success)
		svc.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	})
}

func TestSyncHandler_TypedEndpoints(t *testing.T) {
	svc := new(MockSyncService)
	svc.On("SyncAs", mock.Anything, mock.MatchedBy(func(req models.SyncRequest) bool {
		return req.ID == "77"
	}), models.StageEmployee).Return(&models.SyncResult{Success: true, ID: 77}, nil).Once()
	svc.On("SyncAs", mock.Anything, mock.MatchedBy(func(req models.SyncRequest) bool {
		return req.ID == "1001"
	}), models.StageCustomer).Return(&models.SyncResult{Success: true, ID: 1001}, nil).Once()

	r := setupSyncRouter(svc)

	w := postJSON(r, "/v1/employees/77/netsuite", `{"fields":{"firstname":"Rosa"}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/v1/customer-leads/1001/netsuite", `{"fields":{"firstname":"Ana"}}`)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}
