package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// SyncService defines the interface for ERP ingestion
type SyncService interface {
	Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
	SyncAs(ctx context.Context, req models.SyncRequest, stage models.Stage) (*models.SyncResult, error)
}

// SyncHandler receives ERP pushes over HTTP.
type SyncHandler struct {
	svc SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(svc SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// SyncUser handles POST /v1/users/:id. The record type comes from the body.
func (h *SyncHandler) SyncUser(c *gin.Context) {
	h.handle(c, "")
}

// SyncCustomer handles POST /v1/customer-leads/:id/netsuite
func (h *SyncHandler) SyncCustomer(c *gin.Context) {
	h.handle(c, models.StageCustomer)
}

// SyncEmployee handles POST /v1/employees/:id/netsuite
func (h *SyncHandler) SyncEmployee(c *gin.Context) {
	h.handle(c, models.StageEmployee)
}

// handle answers 200 for reconciled and soft-failed records alike; only
// rejected requests get an error status.
func (h *SyncHandler) handle(c *gin.Context, stage models.Stage) {
	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		verr := errors.NewValidationError("body", err.Error())
		c.JSON(http.StatusBadRequest, &models.SyncResult{Success: false, Code: verr.Code(), Error: verr.Error()})
		return
	}
	req.ID = c.Param("id")

	var (
		result *models.SyncResult
		err    error
	)
	if stage == "" {
		result, err = h.svc.Sync(c.Request.Context(), req)
	} else {
		result, err = h.svc.SyncAs(c.Request.Context(), req, stage)
	}
	if err != nil {
		if result == nil {
			RespondAppError(c, err)
			return
		}
		c.JSON(errors.GetHTTPStatus(err), result)
		return
	}
	c.JSON(http.StatusOK, result)
}
