package ports

import (
	"context"
	"time"

	"swapgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepository defines persistence operations for orders.
// Methods accepting pgx.Tx run inside a transaction block and are used for
// the per-order row lock that makes a reconciliation apply atomic.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByOrderNumber(ctx context.Context, number string) (*domain.Order, error)
	GetBySwapID(ctx context.Context, swapID string) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	GetBySwapIDForUpdate(ctx context.Context, tx pgx.Tx, swapID string) (*domain.Order, error)
	// UpdateStatus persists status, transaction hashes, completion timestamp
	// and updated_at from the given order within a transaction block.
	UpdateStatus(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	AppendHistory(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, entry domain.StatusEntry) error
	// MarkReminderSent flips the one-shot reminder flag. Returns false if the
	// flag was already set (another sweep won the race).
	MarkReminderSent(ctx context.Context, orderID uuid.UUID) (bool, error)

	// Sweep candidate queries, all evaluated against the supplied clock.
	FindExpiredPending(ctx context.Context, now time.Time) ([]domain.Order, error)
	FindExpiringSoon(ctx context.Context, now time.Time, window time.Duration) ([]domain.Order, error)
	FindAbandoned(ctx context.Context, now time.Time, maxAge time.Duration) ([]domain.Order, error)
	FindStuckInFlight(ctx context.Context, now time.Time, staleAfter time.Duration) ([]domain.Order, error)

	List(ctx context.Context, params OrderListParams) ([]domain.Order, int64, error)
}

// OrderListParams holds filter + pagination for listing orders.
type OrderListParams struct {
	Status   *domain.OrderStatus
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// WebhookEventRepository defines persistence for webhook audit records.
type WebhookEventRepository interface {
	// InsertIgnoreDuplicate writes the audit record, keyed by event id.
	// Returns false (and no error) when the event id was already recorded.
	InsertIgnoreDuplicate(ctx context.Context, event *domain.WebhookEvent) (bool, error)
	GetByEventID(ctx context.Context, eventID string) (*domain.WebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string, orderID *uuid.UUID, processingError *string) error
	// PurgeOlderThan disposes of audit records past the retention window.
	// Returns the number of purged rows.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
