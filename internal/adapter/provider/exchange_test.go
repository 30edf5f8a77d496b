package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ExchangeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewExchangeClient(srv.URL, "test-api-key", 5*time.Second, srv.Client(), zerolog.Nop())
}

func TestExchangeClient_ListSupportedAssets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/assets", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"asset":"BTC","network":"bitcoin","name":"Bitcoin"},{"asset":"ETH","network":"ethereum","name":"Ether"}]`))
	})

	assets, err := client.ListSupportedAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "BTC", assets[0].Asset)
	assert.Equal(t, "bitcoin", assets[0].Network)
}

func TestExchangeClient_RequestQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/quotes", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{
			"id": "quote-1",
			"deposit_asset": "BTC",
			"deposit_network": "bitcoin",
			"settle_asset": "USDC",
			"settle_network": "ethereum",
			"deposit_amount": "0.005",
			"settle_amount": "250",
			"rate": "50000",
			"expires_at": "2026-08-31T12:00:00Z"
		}`))
	})

	settle := decimal.NewFromInt(250)
	quote, err := client.RequestQuote(context.Background(), ports.QuoteRequest{
		DepositAsset:   "BTC",
		DepositNetwork: "bitcoin",
		SettleAsset:    "USDC",
		SettleNetwork:  "ethereum",
		SettleAmount:   &settle,
	})
	require.NoError(t, err)
	assert.Equal(t, "quote-1", quote.ID)
	assert.True(t, quote.DepositAmount.Equal(decimal.NewFromFloat(0.005)))
	assert.True(t, quote.SettleAmount.Equal(settle))
	assert.False(t, quote.ExpiresAt.IsZero())
}

func TestExchangeClient_CreateFixedSwap(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/swaps", r.URL.Path)
		w.Write([]byte(`{
			"id": "swap-123",
			"deposit_address": "bc1qdeposit",
			"deposit_amount": "0.005",
			"expires_at": "2026-08-31T12:00:00Z"
		}`))
	})

	swap, err := client.CreateFixedSwap(context.Background(), "quote-1", "0xsettle", "0xrefund")
	require.NoError(t, err)
	assert.Equal(t, "swap-123", swap.ID)
	assert.Equal(t, "bc1qdeposit", swap.DepositAddress)
}

func TestExchangeClient_GetSwapStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/swaps/swap-123", r.URL.Path)
		w.Write([]byte(`{
			"status": "settling",
			"deposit_tx_hash": "0xabc",
			"deposit_amount": "0.005"
		}`))
	})

	status, err := client.GetSwapStatus(context.Background(), "swap-123")
	require.NoError(t, err)
	assert.Equal(t, "settling", status.Status)
	require.NotNil(t, status.DepositTxHash)
	assert.Equal(t, "0xabc", *status.DepositTxHash)
	require.NotNil(t, status.DepositAmount)
	assert.Nil(t, status.SettleTxHash)
}

func TestExchangeClient_NonOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"maintenance"}`))
	})

	_, err := client.GetSwapStatus(context.Background(), "swap-123")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PRV_001", appErr.Code)
	assert.Contains(t, appErr.Message, "503")
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline exceeded" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type timeoutHTTPClient struct{}

func (timeoutHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return nil, &url.Error{Op: "Get", URL: req.URL.String(), Err: timeoutErr{}}
}

func TestExchangeClient_TimeoutMapsToProviderTimeout(t *testing.T) {
	client := NewExchangeClient("http://exchange.invalid", "k", time.Second, timeoutHTTPClient{}, zerolog.Nop())

	_, err := client.GetSwapStatus(context.Background(), "swap-123")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PRV_002", appErr.Code)
}

func TestExchangeClient_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":`))
	})

	_, err := client.GetSwapStatus(context.Background(), "swap-123")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PRV_001", appErr.Code)
}
