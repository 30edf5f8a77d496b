package service

import (
	"context"

	"swapgate/internal/core/domain"

	"github.com/rs/zerolog"
)

// LogNotifier implements ports.Notifier by emitting structured log events.
// Fulfillment and customer messaging consume these downstream; the gateway
// itself only records that the hook fired.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// OrderCompleted fires when an order reaches completed.
func (n *LogNotifier) OrderCompleted(ctx context.Context, order *domain.Order) {
	n.log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("settle_amount", order.SettleAmount.String()).
		Str("settle_asset", order.SettleAsset).
		Msg("order completed, ready for fulfillment")
}

// QuoteExpiring fires once per order when its quote is about to lapse
// without a deposit.
func (n *LogNotifier) QuoteExpiring(ctx context.Context, order *domain.Order) {
	n.log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Time("quote_expires_at", order.QuoteExpiresAt).
		Msg("quote expiring soon, customer reminder due")
}
