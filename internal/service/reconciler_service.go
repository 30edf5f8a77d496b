package service

import (
	"context"
	"fmt"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReconcilerServiceImpl implements ports.Reconciler. It is the only code
// path that writes order status: every observation, whether it arrived by
// webhook, poll or monitor sweep, funnels through Apply under a per-order
// row lock.
type ReconcilerServiceImpl struct {
	orderRepo  ports.OrderRepository
	transactor ports.DBTransactor
	notifier   ports.Notifier
	tolerance  decimal.Decimal
	log        zerolog.Logger
}

// NewReconcilerService creates a new ReconcilerServiceImpl. tolerance is
// the relative deviation of an observed deposit from the quoted amount
// above which the order is flagged underpaid or overpaid.
func NewReconcilerService(
	orderRepo ports.OrderRepository,
	transactor ports.DBTransactor,
	notifier ports.Notifier,
	tolerance float64,
	log zerolog.Logger,
) *ReconcilerServiceImpl {
	return &ReconcilerServiceImpl{
		orderRepo:  orderRepo,
		transactor: transactor,
		notifier:   notifier,
		tolerance:  decimal.NewFromFloat(tolerance),
		log:        log,
	}
}

// ApplyBySwapID merges an external status into the order holding swapID.
func (s *ReconcilerServiceImpl) ApplyBySwapID(ctx context.Context, swapID, externalStatus string, meta ports.ApplyMeta) (*domain.Order, error) {
	return s.apply(ctx, externalStatus, meta, func(ctx context.Context, tx pgx.Tx) (*domain.Order, error) {
		return s.orderRepo.GetBySwapIDForUpdate(ctx, tx, swapID)
	})
}

// ApplyByOrderID merges an external status into the order with orderID.
func (s *ReconcilerServiceImpl) ApplyByOrderID(ctx context.Context, orderID uuid.UUID, externalStatus string, meta ports.ApplyMeta) (*domain.Order, error) {
	return s.apply(ctx, externalStatus, meta, func(ctx context.Context, tx pgx.Tx) (*domain.Order, error) {
		return s.orderRepo.GetByIDForUpdate(ctx, tx, orderID)
	})
}

func (s *ReconcilerServiceImpl) apply(ctx context.Context, externalStatus string, meta ports.ApplyMeta, lock func(context.Context, pgx.Tx) (*domain.Order, error)) (*domain.Order, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := lock(ctx, dbTx)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("lock order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}

	target, known := domain.MapProviderStatus(externalStatus)
	if !known {
		// Unknown provider statuses are ignored so that new statuses on
		// the provider side never break reconciliation.
		s.log.Info().
			Str("order_id", order.ID.String()).
			Str("external_status", externalStatus).
			Msg("ignoring unrecognized provider status")
		return order, nil
	}

	if order.IsTerminal() {
		s.log.Info().
			Str("order_id", order.ID.String()).
			Str("status", string(order.Status)).
			Str("external_status", externalStatus).
			Msg("order is terminal, observation ignored")
		return order, nil
	}

	target = s.deriveAmountMismatch(order, target, meta)

	if target == order.Status {
		// Re-delivery of the current status is a complete no-op: no
		// history entry, no updated_at bump.
		return order, nil
	}

	if !domain.TransitionAllowed(order.Status, target) {
		s.log.Warn().
			Str("order_id", order.ID.String()).
			Str("from", string(order.Status)).
			Str("to", string(target)).
			Str("external_status", externalStatus).
			Msg("transition outside allowed table, applying anyway")
	}

	now := time.Now().UTC()
	from := order.Status
	order.Status = target
	order.UpdatedAt = now
	if meta.DepositTxHash != nil && *meta.DepositTxHash != "" {
		order.DepositTxHash = meta.DepositTxHash
	}
	if meta.SettleTxHash != nil && *meta.SettleTxHash != "" {
		order.SettleTxHash = meta.SettleTxHash
	}
	if target == domain.OrderStatusCompleted {
		order.CompletedAt = &now
	}

	note := meta.Note
	if note == "" {
		note = fmt.Sprintf("provider status %q", externalStatus)
	}
	entry := domain.StatusEntry{Status: target, Note: note, CreatedAt: now}
	order.StatusHistory = append(order.StatusHistory, entry)

	if err := s.orderRepo.UpdateStatus(ctx, dbTx, order); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("update status: %w", err))
	}
	if err := s.orderRepo.AppendHistory(ctx, dbTx, order.ID, entry); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("append history: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Str("external_status", externalStatus).
		Msg("order status reconciled")

	if target == domain.OrderStatusCompleted && s.notifier != nil {
		s.notifier.OrderCompleted(ctx, order)
	}

	return order, nil
}

// deriveAmountMismatch flags underpaid/overpaid when the first deposit
// observation leaves the waiting stage with an amount that deviates from
// the quoted deposit by more than the tolerance. Terminal targets are
// never overridden.
func (s *ReconcilerServiceImpl) deriveAmountMismatch(order *domain.Order, target domain.OrderStatus, meta ports.ApplyMeta) domain.OrderStatus {
	if meta.DepositAmount == nil || target.IsTerminal() {
		return target
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusDetecting {
		return target
	}
	if target != domain.OrderStatusDetecting && target != domain.OrderStatusProcessing {
		return target
	}
	expected := order.DepositAmount
	if !expected.IsPositive() {
		return target
	}

	diff := meta.DepositAmount.Sub(expected)
	rel := diff.Abs().Div(expected)
	if rel.LessThanOrEqual(s.tolerance) {
		return target
	}

	derived := domain.OrderStatusOverpaid
	if diff.IsNegative() {
		derived = domain.OrderStatusUnderpaid
	}
	s.log.Warn().
		Str("order_id", order.ID.String()).
		Str("expected", expected.String()).
		Str("observed", meta.DepositAmount.String()).
		Str("derived", string(derived)).
		Msg("deposit amount deviates from quote")
	return derived
}
