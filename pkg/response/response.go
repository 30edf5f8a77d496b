// Package response renders the API envelopes. Every body, success or
// error, carries the request id and a UTC timestamp so log lines and
// client reports can be correlated.
package response

import (
	"errors"
	"net/http"
	"time"

	"swapgate/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data)
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
		Timestamp: stamp(),
	})
}

// Error maps an *apperror.AppError to its code and HTTP status. Anything
// else renders as an opaque 500: internal details never reach the client.
func Error(c *gin.Context, err error) {
	code, message, status := "SYS_000", "Internal server error", http.StatusInternalServerError

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code, message, status = appErr.Code, appErr.Message, appErr.HTTPStatus
	}

	c.JSON(status, ErrorResponse{
		ErrorCode: code,
		Message:   message,
		RequestID: requestID(c),
		Timestamp: stamp(),
	})
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// requestID reads the id set by the middleware; paths that bypass it
// (panics before the chain, direct handler tests) still get a usable id.
func requestID(c *gin.Context) string {
	if id, ok := c.Value("request_id").(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
