package service

import (
	"context"
	"fmt"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PollServiceImpl implements ports.PollWorker: the pull half of
// reconciliation, used when webhooks are late or lost.
type PollServiceImpl struct {
	orderRepo  ports.OrderRepository
	provider   ports.SwapProvider
	reconciler ports.Reconciler
	log        zerolog.Logger
}

// NewPollService creates a new PollServiceImpl.
func NewPollService(
	orderRepo ports.OrderRepository,
	provider ports.SwapProvider,
	reconciler ports.Reconciler,
	log zerolog.Logger,
) *PollServiceImpl {
	return &PollServiceImpl{
		orderRepo:  orderRepo,
		provider:   provider,
		reconciler: reconciler,
		log:        log,
	}
}

// Poll fetches the provider's current view of one order's swap and feeds
// it to the reconciler. Provider failures are returned as-is: a timeout
// or outage must never move an order.
func (s *PollServiceImpl) Poll(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}
	if order.IsTerminal() {
		return order, nil
	}
	if order.SwapID == nil || *order.SwapID == "" {
		return nil, apperror.ErrNoSwapCreated()
	}

	status, err := s.provider.GetSwapStatus(ctx, *order.SwapID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("order_id", orderID.String()).
			Str("swap_id", *order.SwapID).
			Msg("swap status fetch failed")
		return nil, err
	}

	meta := ports.ApplyMeta{
		DepositTxHash: status.DepositTxHash,
		SettleTxHash:  status.SettleTxHash,
		DepositAmount: status.DepositAmount,
		Note:          "status poll",
	}
	return s.reconciler.ApplyByOrderID(ctx, orderID, status.Status, meta)
}
