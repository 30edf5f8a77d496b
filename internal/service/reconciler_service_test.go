package service

import (
	"context"
	"testing"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/internal/core/ports/mocks"
	"swapgate/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconcilerTestDeps struct {
	svc        *ReconcilerServiceImpl
	orderRepo  *mocks.MockOrderRepository
	transactor *mocks.MockDBTransactor
	notifier   *mocks.MockNotifier
	ctrl       *gomock.Controller
}

func setupReconcilerService(t *testing.T) *reconcilerTestDeps {
	ctrl := gomock.NewController(t)
	d := &reconcilerTestDeps{
		orderRepo:  mocks.NewMockOrderRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		notifier:   mocks.NewMockNotifier(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewReconcilerService(d.orderRepo, d.transactor, d.notifier, 0.01, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func newSwapOrder(status domain.OrderStatus) *domain.Order {
	swapID := "swap-123"
	now := time.Now().UTC().Add(-time.Minute)
	return &domain.Order{
		ID:             uuid.New(),
		OrderNumber:    "SWP-AB12CD34",
		QuoteID:        "quote-1",
		SwapID:         &swapID,
		DepositAsset:   "BTC",
		DepositNetwork: "bitcoin",
		DepositAddress: "bc1qdeposit",
		DepositAmount:  decimal.NewFromFloat(0.005),
		SettleAsset:    "USDC",
		SettleNetwork:  "ethereum",
		SettleAddress:  "0xsettle",
		SettleAmount:   decimal.NewFromInt(250),
		Status:         status,
		QuoteExpiresAt: now.Add(15 * time.Minute),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestReconcilerService_ApplyBySwapID_ForwardTransition(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusDetecting)
	txHash := "0xdeadbeef"

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusProcessing, ports.ApplyMeta{
		DepositTxHash: &txHash,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, domain.OrderStatusProcessing, result.Status)
	require.NotNil(t, result.DepositTxHash)
	assert.Equal(t, txHash, *result.DepositTxHash)
	require.Len(t, result.StatusHistory, 1)
	assert.Equal(t, domain.OrderStatusProcessing, result.StatusHistory[0].Status)
	assert.Nil(t, result.CompletedAt)
}

func TestReconcilerService_ApplyBySwapID_TerminalGuard(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusCompleted)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)

	// A late refund observation must not move a completed order.
	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusRefund, ports.ApplyMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, result.Status)
	assert.Empty(t, result.StatusHistory)
}

func TestReconcilerService_ApplyBySwapID_UnknownStatusIgnored(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusProcessing)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", "verifying", ports.ApplyMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, result.Status)
	assert.Empty(t, result.StatusHistory)
}

func TestReconcilerService_ApplyBySwapID_SameStatusNoOp(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusProcessing)
	before := order.UpdatedAt

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusProcessing, ports.ApplyMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, result.Status)
	assert.Empty(t, result.StatusHistory)
	assert.Equal(t, before, result.UpdatedAt)
}

func TestReconcilerService_ApplyBySwapID_BackwardTransitionAppliedWithWarning(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusSettling)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)

	// The provider walked the swap backwards. Outside the allowed table,
	// but the provider is authoritative so it still lands.
	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusPending, ports.ApplyMeta{})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDetecting, result.Status)
	require.Len(t, result.StatusHistory, 1)
}

func TestReconcilerService_ApplyBySwapID_CompletedSetsTimestampAndNotifies(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusSettling)
	settleHash := "0xsettled"

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)
	d.notifier.EXPECT().OrderCompleted(ctx, gomock.Any())

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusSettled, ports.ApplyMeta{
		SettleTxHash: &settleHash,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, result.Status)
	require.NotNil(t, result.CompletedAt)
	require.NotNil(t, result.SettleTxHash)
	assert.Equal(t, settleHash, *result.SettleTxHash)
}

func TestReconcilerService_ApplyBySwapID_UnderpaidDerived(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusPending)
	observed := decimal.NewFromFloat(0.004) // quoted 0.005

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusPending, ports.ApplyMeta{
		DepositAmount: &observed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusUnderpaid, result.Status)
}

func TestReconcilerService_ApplyBySwapID_OverpaidDerived(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusPending)
	observed := decimal.NewFromFloat(0.006)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusPending, ports.ApplyMeta{
		DepositAmount: &observed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusOverpaid, result.Status)
}

func TestReconcilerService_ApplyBySwapID_AmountWithinTolerance(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusPending)
	observed := decimal.NewFromFloat(0.005) // exact

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-123").Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-123", domain.ProviderStatusPending, ports.ApplyMeta{
		DepositAmount: &observed,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDetecting, result.Status)
}

func TestReconcilerService_ApplyBySwapID_OrderNotFound(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetBySwapIDForUpdate(ctx, tx, "swap-missing").Return(nil, nil)

	result, err := d.svc.ApplyBySwapID(ctx, "swap-missing", domain.ProviderStatusSettled, ports.ApplyMeta{})
	assert.Nil(t, result)
	require.Error(t, err)
	assertAppError(t, err, "ORD_001")
}

func TestReconcilerService_ApplyByOrderID_ExpiresOrder(t *testing.T) {
	d := setupReconcilerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	order := newSwapOrder(domain.OrderStatusPending)

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().AppendHistory(ctx, tx, order.ID, gomock.Any()).Return(nil)

	result, err := d.svc.ApplyByOrderID(ctx, order.ID, domain.ProviderStatusExpired, ports.ApplyMeta{
		Note: "quote expired without deposit",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusExpired, result.Status)
	require.Len(t, result.StatusHistory, 1)
	assert.Equal(t, "quote expired without deposit", result.StatusHistory[0].Note)
}

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
