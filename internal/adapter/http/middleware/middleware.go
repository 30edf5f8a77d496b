package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"
	"swapgate/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderSweepSecret authenticates the external sweep trigger.
	HeaderSweepSecret = "X-Sweep-Secret"
	// HeaderRequestID echoes the request id back to the caller.
	HeaderRequestID = "X-Request-Id"

	// Context keys
	CtxRequestID = "request_id"
	CtxSubject   = "subject"
)

// RequestID assigns every request an id, used in log lines and response
// envelopes. An inbound X-Request-Id is honored.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// JWTAuth creates a middleware that validates operator JWT tokens.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		tokenStr := authHeader[7:]
		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("token validation failed")
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		c.Set(CtxSubject, claims.Subject)
		c.Next()
	}
}

// SweepSecret guards the internal sweep trigger with a shared secret.
// An empty configured secret disables the endpoint entirely.
func SweepSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, apperror.ErrInvalidSweepSecret())
			c.Abort()
			return
		}
		got := c.GetHeader(HeaderSweepSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.Error(c, apperror.ErrInvalidSweepSecret())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_002",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
