package dto

// CreateOrderRequest is the request body for checkout.
type CreateOrderRequest struct {
	DepositAsset   string `json:"deposit_asset" binding:"required,max=20"`
	DepositNetwork string `json:"deposit_network" binding:"required,max=40"`
	// SettleAmount is a decimal string in the settlement asset, e.g. "99.50".
	SettleAmount string `json:"settle_amount" binding:"required,max=40"`
}

// TokenRequest is the request body for the operator token endpoint.
type TokenRequest struct {
	OperatorKey string `json:"operator_key" binding:"required"`
}

// TokenResponse is the response body for a successful token issue.
type TokenResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// StatusEntryResponse is one history entry in an order response.
type StatusEntryResponse struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

// OrderResponse is the public view of an order. Amounts are decimal
// strings; the internal id stays internal, the order number is the
// customer-facing handle.
type OrderResponse struct {
	OrderNumber    string                `json:"order_number"`
	Status         string                `json:"status"`
	DepositAsset   string                `json:"deposit_asset"`
	DepositNetwork string                `json:"deposit_network"`
	DepositAddress string                `json:"deposit_address"`
	DepositAmount  string                `json:"deposit_amount"`
	DepositTxHash  *string               `json:"deposit_tx_hash,omitempty"`
	SettleAsset    string                `json:"settle_asset"`
	SettleNetwork  string                `json:"settle_network"`
	SettleAmount   string                `json:"settle_amount"`
	SettleTxHash   *string               `json:"settle_tx_hash,omitempty"`
	QuoteExpiresAt string                `json:"quote_expires_at"`
	CompletedAt    *string               `json:"completed_at,omitempty"`
	CreatedAt      string                `json:"created_at"`
	StatusHistory  []StatusEntryResponse `json:"status_history,omitempty"`
}

// OrderListResponse wraps a paginated order list.
type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// PurgeResponse reports how many audit records a retention purge removed.
type PurgeResponse struct {
	Purged int64 `json:"purged"`
}
