// Package provider implements the exchange client: the outbound half of
// the gateway, speaking the swap service's REST API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ExchangeClient implements ports.SwapProvider against the exchange's
// REST API. All calls are bounded by the configured timeout; an overrun
// surfaces as a provider timeout error, never as a status transition.
type ExchangeClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewExchangeClient creates a new ExchangeClient. A nil httpClient falls
// back to a default client bounded by timeout.
func NewExchangeClient(baseURL, apiKey string, timeout time.Duration, httpClient HTTPClient, log zerolog.Logger) *ExchangeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &ExchangeClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: httpClient,
		log:        log,
	}
}

type assetResponse struct {
	Asset   string `json:"asset"`
	Network string `json:"network"`
	Name    string `json:"name"`
}

type quoteRequest struct {
	DepositAsset   string           `json:"deposit_asset"`
	DepositNetwork string           `json:"deposit_network"`
	SettleAsset    string           `json:"settle_asset"`
	SettleNetwork  string           `json:"settle_network"`
	DepositAmount  *decimal.Decimal `json:"deposit_amount,omitempty"`
	SettleAmount   *decimal.Decimal `json:"settle_amount,omitempty"`
}

type quoteResponse struct {
	ID             string          `json:"id"`
	DepositAsset   string          `json:"deposit_asset"`
	DepositNetwork string          `json:"deposit_network"`
	SettleAsset    string          `json:"settle_asset"`
	SettleNetwork  string          `json:"settle_network"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	SettleAmount   decimal.Decimal `json:"settle_amount"`
	Rate           decimal.Decimal `json:"rate"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

type swapCreateRequest struct {
	QuoteID       string `json:"quote_id"`
	SettleAddress string `json:"settle_address"`
	RefundAddress string `json:"refund_address"`
}

type swapResponse struct {
	ID             string          `json:"id"`
	DepositAddress string          `json:"deposit_address"`
	DepositAmount  decimal.Decimal `json:"deposit_amount"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

type swapStatusResponse struct {
	Status        string           `json:"status"`
	DepositTxHash *string          `json:"deposit_tx_hash,omitempty"`
	SettleTxHash  *string          `json:"settle_tx_hash,omitempty"`
	DepositAmount *decimal.Decimal `json:"deposit_amount,omitempty"`
}

// ListSupportedAssets fetches the deposit assets the exchange accepts.
func (c *ExchangeClient) ListSupportedAssets(ctx context.Context) ([]ports.Asset, error) {
	var out []assetResponse
	if err := c.do(ctx, http.MethodGet, "/v1/assets", nil, &out); err != nil {
		return nil, err
	}
	assets := make([]ports.Asset, 0, len(out))
	for _, a := range out {
		assets = append(assets, ports.Asset{Asset: a.Asset, Network: a.Network, Name: a.Name})
	}
	return assets, nil
}

// RequestQuote asks for a fixed-rate quote.
func (c *ExchangeClient) RequestQuote(ctx context.Context, req ports.QuoteRequest) (*ports.Quote, error) {
	body := quoteRequest{
		DepositAsset:   req.DepositAsset,
		DepositNetwork: req.DepositNetwork,
		SettleAsset:    req.SettleAsset,
		SettleNetwork:  req.SettleNetwork,
		DepositAmount:  req.DepositAmount,
		SettleAmount:   req.SettleAmount,
	}
	var out quoteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/quotes", body, &out); err != nil {
		return nil, err
	}
	return &ports.Quote{
		ID:             out.ID,
		DepositAsset:   out.DepositAsset,
		DepositNetwork: out.DepositNetwork,
		SettleAsset:    out.SettleAsset,
		SettleNetwork:  out.SettleNetwork,
		DepositAmount:  out.DepositAmount,
		SettleAmount:   out.SettleAmount,
		Rate:           out.Rate,
		ExpiresAt:      out.ExpiresAt,
	}, nil
}

// CreateFixedSwap turns a quote into a swap with a deposit address.
func (c *ExchangeClient) CreateFixedSwap(ctx context.Context, quoteID, settleAddress, refundAddress string) (*ports.Swap, error) {
	body := swapCreateRequest{
		QuoteID:       quoteID,
		SettleAddress: settleAddress,
		RefundAddress: refundAddress,
	}
	var out swapResponse
	if err := c.do(ctx, http.MethodPost, "/v1/swaps", body, &out); err != nil {
		return nil, err
	}
	return &ports.Swap{
		ID:             out.ID,
		DepositAddress: out.DepositAddress,
		DepositAmount:  out.DepositAmount,
		ExpiresAt:      out.ExpiresAt,
	}, nil
}

// GetSwapStatus fetches the exchange's current view of one swap.
func (c *ExchangeClient) GetSwapStatus(ctx context.Context, swapID string) (*ports.SwapStatus, error) {
	var out swapStatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/swaps/"+url.PathEscape(swapID), nil, &out); err != nil {
		return nil, err
	}
	return &ports.SwapStatus{
		Status:        out.Status,
		DepositTxHash: out.DepositTxHash,
		SettleTxHash:  out.SettleTxHash,
		DepositAmount: out.DepositAmount,
	}, nil
}

func (c *ExchangeClient) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("marshal request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return apperror.ErrProviderTimeout(err)
		}
		return apperror.ErrProvider(0, "", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.ErrProvider(resp.StatusCode, "", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Msg("exchange returned non-2xx")
		return apperror.ErrProvider(resp.StatusCode, string(respBody), nil)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return apperror.ErrProvider(resp.StatusCode, string(respBody), fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
