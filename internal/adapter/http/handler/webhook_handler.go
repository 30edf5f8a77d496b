package handler

import (
	"io"

	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"
	"swapgate/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderEventID carries the provider-assigned delivery id.
	HeaderEventID = "X-Event-Id"
	// HeaderWebhookSignature carries the provider HMAC over the raw body.
	HeaderWebhookSignature = "X-Signature"
)

// WebhookHandler receives push notifications from the exchange.
type WebhookHandler struct {
	ingestor ports.WebhookIngestor
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(ingestor ports.WebhookIngestor) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor}
}

// Receive handles POST /webhooks/exchange. The body is passed through
// verbatim; signature verification and parsing happen in the ingestor so
// the audit record always holds the exact bytes received.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	result, err := h.ingestor.Receive(c.Request.Context(), ports.IngestRequest{
		EventID:   c.GetHeader(HeaderEventID),
		Payload:   payload,
		Headers:   c.Request.Header,
		SourceIP:  c.ClientIP(),
		Signature: c.GetHeader(HeaderWebhookSignature),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
