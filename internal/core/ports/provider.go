package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Asset is one deposit/settle asset supported by the exchange.
type Asset struct {
	Asset   string `json:"asset"`
	Network string `json:"network"`
	Name    string `json:"name"`
}

// Quote is a time-bounded price commitment preceding swap creation.
type Quote struct {
	ID             string
	DepositAsset   string
	DepositNetwork string
	SettleAsset    string
	SettleNetwork  string
	DepositAmount  decimal.Decimal
	SettleAmount   decimal.Decimal
	Rate           decimal.Decimal
	ExpiresAt      time.Time
}

// Swap is the provider-side exchange transaction created from a quote.
type Swap struct {
	ID             string
	DepositAddress string
	DepositAmount  decimal.Decimal
	ExpiresAt      time.Time
}

// SwapStatus is the provider's current view of one swap.
type SwapStatus struct {
	Status        string
	DepositTxHash *string
	SettleTxHash  *string
	DepositAmount *decimal.Decimal // observed deposit, when the provider reports it
}

// QuoteRequest asks for a quote with exactly one of DepositAmount or
// SettleAmount set.
type QuoteRequest struct {
	DepositAsset   string
	DepositNetwork string
	SettleAsset    string
	SettleNetwork  string
	DepositAmount  *decimal.Decimal
	SettleAmount   *decimal.Decimal
}

// SwapProvider is the exchange service contract. Implementations must be
// time-bounded: a deadline overrun surfaces as a provider timeout error,
// never as a status transition.
type SwapProvider interface {
	ListSupportedAssets(ctx context.Context) ([]Asset, error)
	RequestQuote(ctx context.Context, req QuoteRequest) (*Quote, error)
	CreateFixedSwap(ctx context.Context, quoteID, settleAddress, refundAddress string) (*Swap, error)
	GetSwapStatus(ctx context.Context, swapID string) (*SwapStatus, error)
}
