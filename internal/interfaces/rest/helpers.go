package rest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// CookieSettings controls the session cookies written on login and refresh.
type CookieSettings struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := userInterface.(auth.UserSession)
	if !ok {
		return nil
	}
	return &user
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.WithFields(log.Fields{
			"status": code,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("❌ Request failed")
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message, // Legacy
		constants.FieldMessage:  message, // Standard
		"code":                  errorCode,
		"data":                  nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// ParamID parses a numeric path parameter. If it is not a positive
// integer, it sends a bad request error.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		RespondAppError(c, errors.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleGet executes a read action and returns the result as is.
func HandleGet(c *gin.Context, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleUpdateEnvelope executes an update action and returns the object wrapped + message
// Response: { constants.FieldMessage: successMsg, [key]: obj } (key omitted if empty)
func HandleUpdateEnvelope(c *gin.Context, key string, successMsg string, obj interface{}, action func() error) {
	if !BindJSON(c, obj) {
		return
	}
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	response := gin.H{constants.FieldMessage: successMsg}
	if key != "" {
		response[key] = obj
	}
	c.JSON(http.StatusOK, response)
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { success: true, constants.FieldMessage: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseSuccess: true, constants.FieldMessage: successMsg})
}

// setSessionCookies writes both tokens as http-only cookies.
func setSessionCookies(c *gin.Context, settings CookieSettings, tokens auth.TokenPair) {
	setSameSite(c, settings)
	c.SetCookie(constants.CookieAccessToken, tokens.AccessToken, int(settings.AccessTTL.Seconds()), "/", settings.Domain, settings.Secure, true)
	c.SetCookie(constants.CookieRefreshToken, tokens.RefreshToken, int(settings.RefreshTTL.Seconds()), "/", settings.Domain, settings.Secure, true)
}

func clearSessionCookies(c *gin.Context, settings CookieSettings) {
	setSameSite(c, settings)
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", settings.Domain, settings.Secure, true)
	c.SetCookie(constants.CookieRefreshToken, "", -1, "/", settings.Domain, settings.Secure, true)
}

// Cross-site cookies must be secure, so SameSite=None only applies in production.
func setSameSite(c *gin.Context, settings CookieSettings) {
	if settings.Secure {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}

// bearerToken returns the token of an Authorization header, if any.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader(constants.HeaderAuthorization)
	if !strings.HasPrefix(header, constants.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
}
