package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/application/services"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/domain/models"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// ParamQuery is the free-text search parameter of the customer list.
const ParamQuery = "query"

// CustomerHandler serves customer leads to the sales app
type CustomerHandler struct {
	svcMgr *services.ServiceManager
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(svcMgr *services.ServiceManager) *CustomerHandler {
	return &CustomerHandler{svcMgr: svcMgr}
}

// RefreshTokenRequest sets the refresh token of a customer
type RefreshTokenRequest struct {
	ID    int64  `json:"id" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// List handles GET /v1/customer-leads. Without a query it lists the
// caller's own customers.
func (h *CustomerHandler) List(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery(constants.ParamPage, strconv.Itoa(constants.DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery(constants.ParamLimit, strconv.Itoa(constants.DefaultLimit)))
	query := c.Query(ParamQuery)
	if query == "" {
		query = c.Query(constants.ParamSearch)
	}

	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Customers.FindAll(c.Request.Context(), strconv.FormatInt(user.ID, 10), page, limit, query)
	})
}

// Get handles GET /v1/customer-leads/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Customers.Get(c.Request.Context(), id)
	})
}

// GetAddresses handles GET /v1/customer-leads/:id/addresses
func (h *CustomerHandler) GetAddresses(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Customers.GetAddresses(c.Request.Context(), id)
	})
}

// DeleteAddress handles DELETE /v1/customer-leads/:id/addresses/:addressId
func (h *CustomerHandler) DeleteAddress(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	addressID, ok := ParamID(c, "addressId")
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Address deleted successfully", func() error {
		return h.svcMgr.Customers.DeleteAddress(c.Request.Context(), id, addressID)
	})
}

// GetByPhoneNumber handles GET /v1/customer-leads/phone/:phone
func (h *CustomerHandler) GetByPhoneNumber(c *gin.Context) {
	HandleGetEnvelope(c, "id", func() (interface{}, error) {
		return h.svcMgr.Customers.GetByPhoneNumber(c.Request.Context(), c.Param("phone"))
	})
}

// GetTissiniPlus handles GET /v1/customer-leads/:id/tissini-plus
func (h *CustomerHandler) GetTissiniPlus(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Customers.GetTissiniPlus(c.Request.Context(), id)
	})
}

// GetCaminoPlus handles GET /v1/customer-leads/:id/camino-plus
func (h *CustomerHandler) GetCaminoPlus(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Customers.GetCaminoPlus(c.Request.Context(), id)
	})
}

// UpdateTCoins handles POST /v1/customer-leads/:id/t-coins
func (h *CustomerHandler) UpdateTCoins(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var update models.TCoinsUpdate
	if !BindJSON(c, &update) {
		return
	}
	HandleGetEnvelope(c, constants.FieldHrc, func() (interface{}, error) {
		return h.svcMgr.Customers.UpdateTCoins(c.Request.Context(), id, update)
	})
}

// CreateLead handles POST /v1/customer-leads
func (h *CustomerHandler) CreateLead(c *gin.Context) {
	var lead map[string]interface{}
	if !BindJSON(c, &lead) {
		return
	}
	result, err := h.svcMgr.Customers.CreateLead(c.Request.Context(), lead)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CreateOrUpdateAddress handles POST /v1/customer-leads/:id/address
func (h *CustomerHandler) CreateOrUpdateAddress(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var address map[string]interface{}
	if !BindJSON(c, &address) {
		return
	}
	h.saveAddress(c, id, address)
}

// CreateAddress handles POST /v1/users/address/create, where the customer
// id travels in the body.
func (h *CustomerHandler) CreateAddress(c *gin.Context) {
	var address map[string]interface{}
	if !BindJSON(c, &address) {
		return
	}
	raw, _ := address["customer_id"].(float64)
	if raw <= 0 {
		RespondAppError(c, errors.NewValidationError("customer_id", "must be a positive integer"))
		return
	}
	delete(address, "customer_id")
	h.saveAddress(c, int64(raw), address)
}

func (h *CustomerHandler) saveAddress(c *gin.Context, id int64, address map[string]interface{}) {
	result, err := h.svcMgr.Customers.CreateOrUpdateAddress(c.Request.Context(), id, address)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Refresh handles POST /v1/customer-leads/:id/refresh
func (h *CustomerHandler) Refresh(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svcMgr.Customers.Refresh(c.Request.Context(), id); err != nil {
		RespondAppError(c, errors.NewInternalError("failed to request refresh", err))
		return
	}
	c.JSON(http.StatusAccepted, gin.H{constants.ResponseSuccess: true})
}

// SetRefreshToken handles POST /v1/users/refresh-token
func (h *CustomerHandler) SetRefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	HandleUpdateEnvelope(c, "", "Refresh token updated", &req, func() error {
		return h.svcMgr.Customers.SetRefreshToken(c.Request.Context(), req.ID, req.Token)
	})
}

// ClearRefreshToken handles DELETE /v1/users/:id/refresh-token
func (h *CustomerHandler) ClearRefreshToken(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Refresh token removed", func() error {
		return h.svcMgr.Customers.SetRefreshToken(c.Request.Context(), id, "")
	})
}

// Delete handles DELETE /v1/customer-leads/:id
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Customer deleted successfully", func() error {
		return h.svcMgr.Customers.Delete(c.Request.Context(), id)
	})
}
