package domain

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of a swap-settled order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusDetecting  OrderStatus = "detecting"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusSettling   OrderStatus = "settling"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusExpired    OrderStatus = "expired"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusUnderpaid  OrderStatus = "underpaid"
	OrderStatusOverpaid   OrderStatus = "overpaid"
)

// IsTerminal returns true if no further transition is permitted from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted ||
		s == OrderStatusExpired ||
		s == OrderStatusFailed ||
		s == OrderStatusRefunded
}

// StatusEntry is one accepted transition in an order's audit trail.
type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Order is the authoritative record of one merchant payment executed as a
// cross-asset swap. Status is mutated exclusively by the reconciler; the
// history is append-only and never truncated.
type Order struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`

	QuoteID string  `json:"quote_id"`
	SwapID  *string `json:"swap_id,omitempty"` // assigned after swap creation

	DepositAsset   string          `json:"deposit_asset"`
	DepositNetwork string          `json:"deposit_network"`
	DepositAddress string          `json:"deposit_address"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	DepositTxHash  *string         `json:"deposit_tx_hash,omitempty"`

	SettleAsset   string          `json:"settle_asset"`
	SettleNetwork string          `json:"settle_network"`
	SettleAddress string          `json:"settle_address"` // config-supplied, immutable per order
	SettleAmount  decimal.Decimal `json:"settle_amount"`
	SettleTxHash  *string         `json:"settle_tx_hash,omitempty"`

	Status        OrderStatus   `json:"status"`
	StatusHistory []StatusEntry `json:"status_history,omitempty"`

	QuoteExpiresAt time.Time  `json:"quote_expires_at"`
	ReminderSent   bool       `json:"reminder_sent"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsTerminal returns true if the order is in a final state.
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// HasDeposit returns true once a deposit transaction has been observed.
func (o *Order) HasDeposit() bool {
	return o.DepositTxHash != nil && *o.DepositTxHash != ""
}

// NewOrderNumber generates a human-facing order number (SWP-XXXXXXXX).
func NewOrderNumber() string {
	id := uuid.New()
	buf := make([]byte, 8)
	hex.Encode(buf, id[:4])
	for i, b := range buf {
		if b >= 'a' && b <= 'f' {
			buf[i] = b - 'a' + 'A'
		}
	}
	return "SWP-" + string(buf)
}
