package domain

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the durable audit record of one inbound push delivery.
// It is written before any reconciliation attempt and updated exactly once
// afterwards. Events are purged after the configured retention window.
type WebhookEvent struct {
	EventID string `json:"event_id"` // provider-delivered or locally assigned, unique

	SwapID  string     `json:"swap_id"`
	OrderID *uuid.UUID `json:"order_id,omitempty"` // linked once the order is resolved

	Payload  []byte `json:"payload"` // raw body, kept for forensic replay
	Headers  string `json:"headers"` // JSON-encoded transport headers
	SourceIP string `json:"source_ip"`

	Processed       bool      `json:"processed"`
	ProcessingError *string   `json:"processing_error,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
}
