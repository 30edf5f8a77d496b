package service

import (
	"context"
	"testing"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/internal/core/ports/mocks"
	"swapgate/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type pollTestDeps struct {
	svc        *PollServiceImpl
	orderRepo  *mocks.MockOrderRepository
	provider   *mocks.MockSwapProvider
	reconciler *mocks.MockReconciler
	ctrl       *gomock.Controller
}

func setupPollService(t *testing.T) *pollTestDeps {
	ctrl := gomock.NewController(t)
	d := &pollTestDeps{
		orderRepo:  mocks.NewMockOrderRepository(ctrl),
		provider:   mocks.NewMockSwapProvider(ctrl),
		reconciler: mocks.NewMockReconciler(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewPollService(d.orderRepo, d.provider, d.reconciler, zerolog.Nop())
	return d
}

func TestPollService_Poll_AppliesProviderStatus(t *testing.T) {
	d := setupPollService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := newSwapOrder(domain.OrderStatusProcessing)
	settleHash := "0xsettle"
	observed := decimal.NewFromFloat(0.005)
	updated := newSwapOrder(domain.OrderStatusSettling)

	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)
	d.provider.EXPECT().GetSwapStatus(ctx, "swap-123").Return(&ports.SwapStatus{
		Status:        domain.ProviderStatusSettling,
		SettleTxHash:  &settleHash,
		DepositAmount: &observed,
	}, nil)
	d.reconciler.EXPECT().ApplyByOrderID(ctx, order.ID, domain.ProviderStatusSettling, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, _ string, meta ports.ApplyMeta) (*domain.Order, error) {
			require.NotNil(t, meta.SettleTxHash)
			assert.Equal(t, settleHash, *meta.SettleTxHash)
			assert.Equal(t, "status poll", meta.Note)
			return updated, nil
		})

	result, err := d.svc.Poll(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSettling, result.Status)
}

func TestPollService_Poll_TerminalOrderSkipsProvider(t *testing.T) {
	d := setupPollService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := newSwapOrder(domain.OrderStatusCompleted)

	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)

	result, err := d.svc.Poll(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, result.Status)
}

func TestPollService_Poll_NoSwap(t *testing.T) {
	d := setupPollService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := newSwapOrder(domain.OrderStatusPending)
	order.SwapID = nil

	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)

	result, err := d.svc.Poll(ctx, order.ID)
	assert.Nil(t, result)
	require.Error(t, err)
	assertAppError(t, err, "ORD_002")
}

func TestPollService_Poll_NotFound(t *testing.T) {
	d := setupPollService(t)
	defer d.ctrl.Finish()

	id := uuid.New()
	d.orderRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	result, err := d.svc.Poll(context.Background(), id)
	assert.Nil(t, result)
	require.Error(t, err)
	assertAppError(t, err, "ORD_001")
}

func TestPollService_Poll_ProviderTimeoutDoesNotTransition(t *testing.T) {
	d := setupPollService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := newSwapOrder(domain.OrderStatusSettling)

	d.orderRepo.EXPECT().GetByID(ctx, order.ID).Return(order, nil)
	d.provider.EXPECT().GetSwapStatus(ctx, "swap-123").Return(nil, apperror.ErrProviderTimeout(assert.AnError))

	// No reconciler expectation: a timeout must never become a transition.
	result, err := d.svc.Poll(ctx, order.ID)
	assert.Nil(t, result)
	require.Error(t, err)
	assertAppError(t, err, "PRV_002")
}
