package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/application/services"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// EmployeeHandler serves sales representatives
type EmployeeHandler struct {
	svcMgr *services.ServiceManager
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(svcMgr *services.ServiceManager) *EmployeeHandler {
	return &EmployeeHandler{svcMgr: svcMgr}
}

// GraphIDRequest links an employee to a directory account
type GraphIDRequest struct {
	MicrosoftGraphID string `json:"microsoft_graph_id" binding:"required"`
}

// Get handles GET /v1/employees/:id
func (h *EmployeeHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleGet(c, func() (interface{}, error) {
		emp, err := h.svcMgr.Employees.Get(c.Request.Context(), id)
		if err != nil {
			return nil, err
		}
		return emp.Public(), nil
	})
}

// Update handles PATCH /v1/employees/:id. Callers may only edit themselves.
func (h *EmployeeHandler) Update(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	var update services.EmployeeUpdate
	if !BindJSON(c, &update) {
		return
	}
	HandleGet(c, func() (interface{}, error) {
		emp, err := h.svcMgr.Employees.Update(c.Request.Context(), user.ID, id, update)
		if err != nil {
			return nil, err
		}
		return emp.Public(), nil
	})
}

// AddMicrosoftGraphID handles PATCH /v1/employees/:id/microsoft-graph-id
func (h *EmployeeHandler) AddMicrosoftGraphID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req GraphIDRequest
	HandleUpdateEnvelope(c, "", "Microsoft graph id updated", &req, func() error {
		return h.svcMgr.Employees.AddMicrosoftGraphID(c.Request.Context(), id, req.MicrosoftGraphID)
	})
}

// GetLeaders handles GET /v1/employees/leaders
func (h *EmployeeHandler) GetLeaders(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Employees.GetLeaders(c.Request.Context())
	})
}

// GetBy8x8ID handles GET /v1/employees/8x8/:agentId
func (h *EmployeeHandler) GetBy8x8ID(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		emp, err := h.svcMgr.Employees.GetBy8x8ID(c.Request.Context(), c.Param("agentId"))
		if err != nil {
			return nil, err
		}
		return emp.Public(), nil
	})
}

// FreeShipping handles GET /v1/employees/:id/free-shipping
func (h *EmployeeHandler) FreeShipping(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleGetEnvelope(c, "free_shipping", func() (interface{}, error) {
		return h.svcMgr.Employees.FreeShippingBySalesRep(c.Request.Context(), id)
	})
}
