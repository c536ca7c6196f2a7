package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
)

// Cors allows credentialed requests from the configured front ends.
// Session cookies need credentials, so origins are never wildcarded.
func Cors(allowedOrigins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AddAllowHeaders(constants.HeaderAuthorization, constants.HeaderAPIKey)
	config.MaxAge = 12 * time.Hour
	return cors.New(config)
}
