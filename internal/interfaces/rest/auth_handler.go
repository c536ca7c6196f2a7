package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anthonyjo217/catalyst-transactions-service/internal/application/services"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/auth"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/constants"
	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

type AuthHandler struct {
	svcMgr  *services.ServiceManager
	cookies CookieSettings
}

func NewAuthHandler(svcMgr *services.ServiceManager, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{
		svcMgr:  svcMgr,
		cookies: cookies,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LeadLoginRequest carries the phone number, app token or id of a customer
type LeadLoginRequest struct {
	Username string `json:"username" binding:"required"`
}

// ResetPasswordRequest sets a new password with a recovery token
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	if !auth.IsValidEmail(strings.TrimSpace(req.Email)) {
		RespondAppError(c, errors.NewValidationError("email", "invalid email format"))
		return
	}

	result, err := h.svcMgr.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	setSessionCookies(c, h.cookies, result.TokenPair)
	c.JSON(http.StatusOK, result)
}

// PhoneLogin handles POST /v1/auth/phone-number
func (h *AuthHandler) PhoneLogin(c *gin.Context) {
	h.leadLogin(c, constants.FieldMobilePhone)
}

// TokenLogin handles POST /v1/auth/token
func (h *AuthHandler) TokenLogin(c *gin.Context) {
	h.leadLogin(c, constants.FieldToken)
}

// IDLogin handles POST /v1/auth/id
func (h *AuthHandler) IDLogin(c *gin.Context) {
	h.leadLogin(c, constants.FieldID)
}

func (h *AuthHandler) leadLogin(c *gin.Context, property string) {
	var req LeadLoginRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.svcMgr.Auth.LeadLogin(c.Request.Context(), property, strings.TrimSpace(req.Username))
	if err != nil {
		RespondAppError(c, err)
		return
	}

	setSessionCookies(c, h.cookies, result.TokenPair)
	c.JSON(http.StatusOK, result)
}

// RefreshToken handles GET /v1/auth/refresh-token. The refresh token is
// read from its cookie, or from the Authorization header.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(constants.CookieRefreshToken)
	if err != nil || token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		RespondAppError(c, errors.NewUnauthorizedError("no refresh token provided"))
		return
	}

	tokens, err := h.svcMgr.Auth.Refresh(c.Request.Context(), token)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	setSessionCookies(c, h.cookies, *tokens)
	c.JSON(http.StatusOK, gin.H{
		constants.ResponseSuccess: true,
		"access_token":            tokens.AccessToken,
		"refresh_token":           tokens.RefreshToken,
	})
}

// Logout handles DELETE /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("user not authenticated"))
		return
	}

	if err := h.svcMgr.Auth.Logout(c.Request.Context(), *user); err != nil {
		RespondAppError(c, err)
		return
	}

	clearSessionCookies(c, h.cookies)
	c.JSON(http.StatusOK, gin.H{constants.ResponseSuccess: true})
}

// RecoverPassword handles POST /v1/auth/recover-password/:email. The
// answer is the same whether or not the email is known.
func (h *AuthHandler) RecoverPassword(c *gin.Context) {
	if err := h.svcMgr.Auth.RecoverPassword(c.Request.Context(), c.Param("email")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseSuccess: true})
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !BindJSON(c, &req) {
		return
	}
	if err := h.svcMgr.Auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.ResponseSuccess: true})
}

// CheckEmail handles GET /v1/auth/check-email/:email
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	HandleGet(c, func() (interface{}, error) {
		return h.svcMgr.Employees.CheckEmail(c.Request.Context(), c.Param("email"))
	})
}
