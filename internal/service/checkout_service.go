package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SettlementParams is the merchant's fixed settlement side: every order
// settles the same asset to the same address.
type SettlementParams struct {
	Asset         string
	Network       string
	Address       string
	RefundAddress string
}

// CheckoutServiceImpl implements ports.CheckoutService.
type CheckoutServiceImpl struct {
	orderRepo ports.OrderRepository
	provider  ports.SwapProvider
	settle    SettlementParams
	log       zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(
	orderRepo ports.OrderRepository,
	provider ports.SwapProvider,
	settle SettlementParams,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		orderRepo: orderRepo,
		provider:  provider,
		settle:    settle,
		log:       log,
	}
}

// CreateOrder quotes and creates a fixed-rate swap for the requested
// deposit asset, then persists the order in pending.
func (s *CheckoutServiceImpl) CreateOrder(ctx context.Context, req ports.CreateOrderRequest) (*domain.Order, error) {
	if !req.SettleAmount.IsPositive() {
		return nil, apperror.Validation("settle amount must be positive")
	}

	supported, err := s.assetSupported(ctx, req.DepositAsset, req.DepositNetwork)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, apperror.ErrUnsupportedAsset(req.DepositAsset)
	}

	quote, err := s.provider.RequestQuote(ctx, ports.QuoteRequest{
		DepositAsset:   req.DepositAsset,
		DepositNetwork: req.DepositNetwork,
		SettleAsset:    s.settle.Asset,
		SettleNetwork:  s.settle.Network,
		SettleAmount:   &req.SettleAmount,
	})
	if err != nil {
		return nil, err
	}

	swap, err := s.provider.CreateFixedSwap(ctx, quote.ID, s.settle.Address, s.settle.RefundAddress)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := swap.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = quote.ExpiresAt
	}
	swapID := swap.ID
	order := &domain.Order{
		ID:          uuid.New(),
		OrderNumber: domain.NewOrderNumber(),

		QuoteID: quote.ID,
		SwapID:  &swapID,

		DepositAsset:   req.DepositAsset,
		DepositNetwork: req.DepositNetwork,
		DepositAddress: swap.DepositAddress,
		DepositAmount:  swap.DepositAmount,

		SettleAsset:   s.settle.Asset,
		SettleNetwork: s.settle.Network,
		SettleAddress: s.settle.Address,
		SettleAmount:  req.SettleAmount,

		Status: domain.OrderStatusPending,
		StatusHistory: []domain.StatusEntry{
			{Status: domain.OrderStatusPending, Note: "order created", CreatedAt: now},
		},

		QuoteExpiresAt: expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("create order: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("swap_id", swap.ID).
		Str("deposit_asset", req.DepositAsset).
		Msg("order created")

	return order, nil
}

// GetOrder returns the order by its human-facing number.
func (s *CheckoutServiceImpl) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}
	return order, nil
}

// ListAssets returns the deposit assets supported by the exchange.
func (s *CheckoutServiceImpl) ListAssets(ctx context.Context) ([]ports.Asset, error) {
	return s.provider.ListSupportedAssets(ctx)
}

func (s *CheckoutServiceImpl) assetSupported(ctx context.Context, asset, network string) (bool, error) {
	assets, err := s.provider.ListSupportedAssets(ctx)
	if err != nil {
		return false, err
	}
	for _, a := range assets {
		if strings.EqualFold(a.Asset, asset) && strings.EqualFold(a.Network, network) {
			return true, nil
		}
	}
	return false, nil
}
