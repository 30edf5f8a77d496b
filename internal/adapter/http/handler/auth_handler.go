package handler

import (
	"net/http"

	"swapgate/internal/adapter/http/dto"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"
	"swapgate/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues operator tokens for the admin API.
type AuthHandler struct {
	hashSvc         ports.HashService
	tokenSvc        ports.TokenService
	operatorKeyHash string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(hashSvc ports.HashService, tokenSvc ports.TokenService, operatorKeyHash string) *AuthHandler {
	return &AuthHandler{hashSvc: hashSvc, tokenSvc: tokenSvc, operatorKeyHash: operatorKeyHash}
}

// Token handles POST /api/v1/auth/token. The operator key is compared
// against the configured Argon2id hash; no operator accounts exist.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if h.operatorKeyHash == "" {
		response.Error(c, apperror.ErrInvalidOperatorKey())
		return
	}

	ok, err := h.hashSvc.Verify(req.OperatorKey, h.operatorKeyHash)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if !ok {
		response.Error(c, apperror.ErrInvalidOperatorKey())
		return
	}

	token, expiry, err := h.tokenSvc.Generate("operator")
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	response.OK(c, dto.TokenResponse{Token: token, Expiry: expiry.Unix()})
}

// HealthCheck returns the liveness of the service and its dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
