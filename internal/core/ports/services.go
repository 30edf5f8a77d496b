package ports

import (
	"context"
	"time"

	"swapgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplyMeta carries the optional observations accompanying an external
// status: transaction hashes, the observed deposit amount and a history
// note.
type ApplyMeta struct {
	DepositTxHash *string
	SettleTxHash  *string
	DepositAmount *decimal.Decimal
	Note          string
}

// Reconciler merges one externally observed status into one order. It is
// the single writer of order status: idempotent, terminal-guarded and
// atomic per order.
type Reconciler interface {
	ApplyBySwapID(ctx context.Context, swapID, externalStatus string, meta ApplyMeta) (*domain.Order, error)
	ApplyByOrderID(ctx context.Context, orderID uuid.UUID, externalStatus string, meta ApplyMeta) (*domain.Order, error)
}

// IngestRequest is one inbound push delivery as seen at the transport
// boundary.
type IngestRequest struct {
	EventID  string // provider-delivered event id; empty = assign locally
	Payload  []byte
	Headers  map[string][]string
	SourceIP string
	// Signature is the provider's HMAC over the raw payload, when present.
	Signature string
}

// Ingest outcomes reported in the acknowledgement body.
const (
	IngestResultApplied       = "applied"
	IngestResultIgnored       = "ignored"        // unrecognized status or terminal order
	IngestResultUnknownSwap   = "unknown_swap"   // no order for the swap id yet
	IngestResultErrorRecorded = "error_recorded" // internal failure captured on the audit record
)

// IngestResult is the acknowledgement returned to the event source.
type IngestResult struct {
	EventID string     `json:"event_id"`
	Result  string     `json:"result"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
}

// WebhookIngestor durably records and then reconciles inbound push events.
type WebhookIngestor interface {
	Receive(ctx context.Context, req IngestRequest) (*IngestResult, error)
	// Replay re-runs reconciliation for a stored audit record, the recovery
	// path for events whose first processing attempt failed.
	Replay(ctx context.Context, eventID string) (*IngestResult, error)
}

// PollWorker fetches the current provider status for one order and feeds
// it to the reconciler.
type PollWorker interface {
	Poll(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

// SweepSummary counts what one monitor pass did per category.
type SweepSummary struct {
	Expired      int `json:"expired"`
	Reminded     int `json:"reminded"`
	Abandoned    int `json:"abandoned"`
	Polled       int `json:"polled"`
	PollFailures int `json:"poll_failures"`
}

// Monitor is the idempotent expiry/stuck sweep.
type Monitor interface {
	Sweep(ctx context.Context) (*SweepSummary, error)
}

// CreateOrderRequest holds validated input for checkout.
type CreateOrderRequest struct {
	DepositAsset   string
	DepositNetwork string
	SettleAmount   decimal.Decimal
}

// CheckoutService creates orders against the exchange and serves reads.
type CheckoutService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListAssets(ctx context.Context) ([]Asset, error)
}

// Notifier receives lifecycle hooks. Delivery (email, fulfillment) is an
// external collaborator; implementations here only hand the event off.
type Notifier interface {
	OrderCompleted(ctx context.Context, order *domain.Order)
	QuoteExpiring(ctx context.Context, order *domain.Order)
}

// EventDedupeCache is the Redis fast path for webhook event ids; the
// database unique key remains the source of truth.
type EventDedupeCache interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string, ttl time.Duration) error
}

// TokenService handles operator JWT operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// HashService handles operator key hashing (Argon2id).
type HashService interface {
	Hash(key string) (string, error)
	Verify(key string, hash string) (bool, error)
}

// SignatureService handles HMAC-SHA256 signing and verification for
// provider webhook payloads.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}
