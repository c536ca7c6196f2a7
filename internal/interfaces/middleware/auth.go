package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
)

// TokenValidator checks access tokens
type TokenValidator interface {
	ValidateAccess(token string) (*auth.UserSession, error)
}

// RequireAuth is a middleware that validates JWT tokens. The token is
// read from the Authorization header, then from the access token cookie.
func RequireAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, message := extractToken(c)
		if tokenString == "" {
			abortUnauthorized(c, message)
			return
		}

		session, err := validator.ValidateAccess(tokenString)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		// Set user session in context
		c.Set(constants.ContextKeyUser, *session)
		c.Set(constants.ContextKeyToken, tokenString)

		c.Next()
	}
}

// RequireEmployee rejects sessions that do not belong to a sales representative
func RequireEmployee() gin.HandlerFunc {
	return func(c *gin.Context) {
		userInterface, exists := c.Get(constants.ContextKeyUser)
		if !exists {
			abortUnauthorized(c, "User not authenticated")
			return
		}

		user, ok := userInterface.(auth.UserSession)
		if !ok || !user.IsEmployee() {
			c.JSON(http.StatusForbidden, gin.H{
				constants.ResponseError: "Forbidden",
				constants.FieldMessage:  "Only employees can access this resource",
				"code":                  "FORBIDDEN",
				"data":                  nil,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAPIKey guards machine-to-machine routes with the X-API-KEY header.
// An empty configured key rejects every request.
func RequireAPIKey(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)
	return func(c *gin.Context) {
		given := []byte(c.GetHeader(constants.HeaderAPIKey))
		if len(expected) == 0 || subtle.ConstantTimeCompare(given, expected) != 1 {
			abortUnauthorized(c, "Invalid API key")
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader != "" {
		// Extract token (format: "Bearer <token>")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", "Invalid authorization header format"
		}
		return strings.TrimSpace(parts[1]), "No authorization token provided"
	}

	if cookie, err := c.Cookie(constants.CookieAccessToken); err == nil && cookie != "" {
		return cookie, ""
	}
	return "", "No authorization token provided"
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		constants.ResponseError: "Unauthorized",
		constants.FieldMessage:  message,
		"code":                  "UNAUTHORIZED",
		"data":                  nil,
	})
	c.Abort()
}
