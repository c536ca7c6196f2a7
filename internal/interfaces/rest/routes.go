package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/application/services"
	"github.com/anthonyjo217/catalyst-transactions-service/internal/interfaces/middleware"
)

// RouteOptions carries the settings the routes need from configuration.
type RouteOptions struct {
	APIKey  string
	Cookies CookieSettings
}

// RegisterRoutes mounts every endpoint of the service on router.
func RegisterRoutes(router *gin.Engine, svcMgr *services.ServiceManager, opts RouteOptions) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	syncHandler := NewSyncHandler(svcMgr.Sync)
	customerHandler := NewCustomerHandler(svcMgr)
	employeeHandler := NewEmployeeHandler(svcMgr)
	authHandler := NewAuthHandler(svcMgr, opts.Cookies)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireEmployee := middleware.RequireEmployee()
	requireAPIKey := middleware.RequireAPIKey(opts.APIKey)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/phone-number", authHandler.PhoneLogin)
			auth.POST("/token", authHandler.TokenLogin)
			auth.POST("/id", authHandler.IDLogin)
			auth.GET("/refresh-token", authHandler.RefreshToken)
			auth.DELETE("/logout", requireAuth, authHandler.Logout)
			auth.POST("/recover-password/:email", authHandler.RecoverPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/check-email/:email", authHandler.CheckEmail)
		}

		customers := v1.Group("/customer-leads")
		{
			customers.GET("", requireAuth, requireEmployee, customerHandler.List)
			customers.POST("", requireAuth, customerHandler.CreateLead)
			customers.GET("/phone/:phone", requireAPIKey, customerHandler.GetByPhoneNumber)
			customers.GET("/:id", requireAuth, customerHandler.Get)
			customers.DELETE("/:id", requireAPIKey, customerHandler.Delete)
			customers.GET("/:id/addresses", requireAPIKey, customerHandler.GetAddresses)
			customers.DELETE("/:id/addresses/:addressId", requireAuth, customerHandler.DeleteAddress)
			customers.POST("/:id/address", requireAuth, customerHandler.CreateOrUpdateAddress)
			customers.POST("/:id/refresh", requireAPIKey, customerHandler.Refresh)
			customers.POST("/:id/netsuite", requireAPIKey, syncHandler.SyncCustomer)
			customers.GET("/:id/tissini-plus", customerHandler.GetTissiniPlus)
			customers.GET("/:id/camino-plus", requireAuth, customerHandler.GetCaminoPlus)
			customers.POST("/:id/t-coins", requireAPIKey, customerHandler.UpdateTCoins)
		}

		// Routes kept for clients of the former users API
		users := v1.Group("/users")
		{
			users.GET("", requireAuth, requireEmployee, customerHandler.List)
			users.GET("/:id", requireAuth, customerHandler.Get)
			users.POST("/lead/create", requireAuth, customerHandler.CreateLead)
			users.POST("/address/create", requireAuth, customerHandler.CreateAddress)
			users.POST("/refresh-token", requireAPIKey, customerHandler.SetRefreshToken)
			users.DELETE("/:id/refresh-token", requireAPIKey, customerHandler.ClearRefreshToken)
			users.POST("/:id", requireAPIKey, syncHandler.SyncUser)
		}

		employees := v1.Group("/employees")
		{
			employees.GET("/leaders", requireAuth, employeeHandler.GetLeaders)
			employees.GET("/8x8/:agentId", requireAPIKey, employeeHandler.GetBy8x8ID)
			employees.GET("/:id", requireAuth, employeeHandler.Get)
			employees.PATCH("/:id", requireAuth, requireEmployee, employeeHandler.Update)
			employees.PATCH("/:id/microsoft-graph-id", requireAPIKey, employeeHandler.AddMicrosoftGraphID)
			employees.GET("/:id/free-shipping", requireAuth, employeeHandler.FreeShipping)
			employees.POST("/:id/netsuite", requireAPIKey, syncHandler.SyncEmployee)
		}
	}
}
