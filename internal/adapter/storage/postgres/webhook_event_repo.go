package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swapgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const webhookEventColumns = `event_id, swap_id, order_id, payload, headers, source_ip,
	processed, processing_error, received_at`

// WebhookEventRepo implements ports.WebhookEventRepository.
type WebhookEventRepo struct {
	pool Pool
}

// NewWebhookEventRepo creates a new WebhookEventRepo.
func NewWebhookEventRepo(pool Pool) *WebhookEventRepo {
	return &WebhookEventRepo{pool: pool}
}

// InsertIgnoreDuplicate writes the audit record. The unique key on
// event_id makes this the durable deduplication guard; a conflicting
// insert is reported as not-inserted, never as an error.
func (r *WebhookEventRepo) InsertIgnoreDuplicate(ctx context.Context, e *domain.WebhookEvent) (bool, error) {
	query := `INSERT INTO webhook_events (` + webhookEventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		e.EventID, e.SwapID, e.OrderID, e.Payload, e.Headers, e.SourceIP,
		e.Processed, e.ProcessingError, e.ReceivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert webhook event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByEventID fetches one audit record.
func (r *WebhookEventRepo) GetByEventID(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE event_id = $1`

	e := &domain.WebhookEvent{}
	err := r.pool.QueryRow(ctx, query, eventID).Scan(
		&e.EventID, &e.SwapID, &e.OrderID, &e.Payload, &e.Headers, &e.SourceIP,
		&e.Processed, &e.ProcessingError, &e.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan webhook event: %w", err)
	}
	return e, nil
}

// MarkProcessed finalizes the audit record after a processing attempt.
func (r *WebhookEventRepo) MarkProcessed(ctx context.Context, eventID string, orderID *uuid.UUID, processingError *string) error {
	query := `UPDATE webhook_events SET processed = TRUE, order_id = $1, processing_error = $2 WHERE event_id = $3`

	tag, err := r.pool.Exec(ctx, query, orderID, processingError, eventID)
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}
	return nil
}

// PurgeOlderThan disposes of audit records past the retention window.
func (r *WebhookEventRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM webhook_events WHERE received_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge webhook events: %w", err)
	}
	return tag.RowsAffected(), nil
}
