package service

import (
	"context"
	"fmt"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/rs/zerolog"
)

// MonitorServiceImpl implements ports.Monitor: the periodic sweep that
// expires unfunded orders, reminds customers before their quote lapses,
// closes abandoned orders and re-polls in-flight orders that have gone
// quiet. Every rule routes status changes through the reconciler, so a
// sweep racing a webhook still converges.
type MonitorServiceImpl struct {
	orderRepo  ports.OrderRepository
	reconciler ports.Reconciler
	poller     ports.PollWorker
	notifier   ports.Notifier

	reminderWindow time.Duration
	abandonAge     time.Duration
	stuckAge       time.Duration

	log zerolog.Logger
}

// NewMonitorService creates a new MonitorServiceImpl.
func NewMonitorService(
	orderRepo ports.OrderRepository,
	reconciler ports.Reconciler,
	poller ports.PollWorker,
	notifier ports.Notifier,
	reminderWindow time.Duration,
	abandonAge time.Duration,
	stuckAge time.Duration,
	log zerolog.Logger,
) *MonitorServiceImpl {
	return &MonitorServiceImpl{
		orderRepo:      orderRepo,
		reconciler:     reconciler,
		poller:         poller,
		notifier:       notifier,
		reminderWindow: reminderWindow,
		abandonAge:     abandonAge,
		stuckAge:       stuckAge,
		log:            log,
	}
}

// Sweep runs all monitor rules once. Per-order failures are logged and
// skipped; a bad order never blocks the rest of the pass.
func (s *MonitorServiceImpl) Sweep(ctx context.Context) (*ports.SweepSummary, error) {
	now := time.Now().UTC()
	summary := &ports.SweepSummary{}

	if err := s.expireUnfunded(ctx, now, summary); err != nil {
		return nil, err
	}
	if err := s.remindExpiring(ctx, now, summary); err != nil {
		return nil, err
	}
	if err := s.closeAbandoned(ctx, now, summary); err != nil {
		return nil, err
	}
	if err := s.pollStuck(ctx, now, summary); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("expired", summary.Expired).
		Int("reminded", summary.Reminded).
		Int("abandoned", summary.Abandoned).
		Int("polled", summary.Polled).
		Int("poll_failures", summary.PollFailures).
		Msg("monitor sweep completed")

	return summary, nil
}

// expireUnfunded closes pending orders whose quote lapsed before any
// deposit was observed.
func (s *MonitorServiceImpl) expireUnfunded(ctx context.Context, now time.Time, summary *ports.SweepSummary) error {
	orders, err := s.orderRepo.FindExpiredPending(ctx, now)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("find expired pending: %w", err))
	}
	for i := range orders {
		order := &orders[i]
		meta := ports.ApplyMeta{Note: "quote expired without deposit"}
		if _, err := s.reconciler.ApplyByOrderID(ctx, order.ID, domain.ProviderStatusExpired, meta); err != nil {
			s.log.Error().Err(err).Str("order_id", order.ID.String()).Msg("sweep: failed to expire order")
			continue
		}
		summary.Expired++
	}
	return nil
}

// remindExpiring sends the one-shot expiry reminder for pending orders
// inside the reminder window. The flag flip decides the race between
// overlapping sweeps.
func (s *MonitorServiceImpl) remindExpiring(ctx context.Context, now time.Time, summary *ports.SweepSummary) error {
	orders, err := s.orderRepo.FindExpiringSoon(ctx, now, s.reminderWindow)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("find expiring soon: %w", err))
	}
	for i := range orders {
		order := &orders[i]
		won, err := s.orderRepo.MarkReminderSent(ctx, order.ID)
		if err != nil {
			s.log.Error().Err(err).Str("order_id", order.ID.String()).Msg("sweep: failed to mark reminder")
			continue
		}
		if !won {
			continue
		}
		s.notifier.QuoteExpiring(ctx, order)
		summary.Reminded++
	}
	return nil
}

// closeAbandoned expires pending orders that have sat without a deposit
// far past any plausible payment window. In-flight orders are left to
// pollStuck, whatever their deposit hash says.
func (s *MonitorServiceImpl) closeAbandoned(ctx context.Context, now time.Time, summary *ports.SweepSummary) error {
	orders, err := s.orderRepo.FindAbandoned(ctx, now, s.abandonAge)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("find abandoned: %w", err))
	}
	for i := range orders {
		order := &orders[i]
		meta := ports.ApplyMeta{Note: "abandoned"}
		if _, err := s.reconciler.ApplyByOrderID(ctx, order.ID, domain.ProviderStatusExpired, meta); err != nil {
			s.log.Error().Err(err).Str("order_id", order.ID.String()).Msg("sweep: failed to close abandoned order")
			continue
		}
		summary.Abandoned++
	}
	return nil
}

// pollStuck re-polls in-flight orders whose last update is older than the
// staleness threshold, the recovery path for lost webhooks.
func (s *MonitorServiceImpl) pollStuck(ctx context.Context, now time.Time, summary *ports.SweepSummary) error {
	orders, err := s.orderRepo.FindStuckInFlight(ctx, now, s.stuckAge)
	if err != nil {
		return apperror.ErrStorage(fmt.Errorf("find stuck in-flight: %w", err))
	}
	for i := range orders {
		order := &orders[i]
		if _, err := s.poller.Poll(ctx, order.ID); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("sweep: poll for stuck order failed")
			summary.PollFailures++
			continue
		}
		summary.Polled++
	}
	return nil
}
