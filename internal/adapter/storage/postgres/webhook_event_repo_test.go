package postgres

import (
	"context"
	"testing"
	"time"

	"swapgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredEvent() *domain.WebhookEvent {
	return &domain.WebhookEvent{
		EventID:    "evt-1",
		SwapID:     "swap-123",
		Payload:    []byte(`{"swap_id":"swap-123","status":"settled"}`),
		Headers:    `{"Content-Type":["application/json"]}`,
		SourceIP:   "10.0.0.1",
		ReceivedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestWebhookEventRepo_InsertIgnoreDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	e := newStoredEvent()

	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs(e.EventID, e.SwapID, e.OrderID, e.Payload, e.Headers, e.SourceIP,
			e.Processed, e.ProcessingError, e.ReceivedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := repo.InsertIgnoreDuplicate(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_InsertIgnoreDuplicate_Conflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	e := newStoredEvent()

	mock.ExpectExec("INSERT INTO webhook_events").
		WithArgs(e.EventID, e.SwapID, e.OrderID, e.Payload, e.Headers, e.SourceIP,
			e.Processed, e.ProcessingError, e.ReceivedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.InsertIgnoreDuplicate(context.Background(), e)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_GetByEventID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	e := newStoredEvent()

	mock.ExpectQuery("SELECT .+ FROM webhook_events WHERE event_id").
		WithArgs(e.EventID).
		WillReturnRows(pgxmock.NewRows([]string{
			"event_id", "swap_id", "order_id", "payload", "headers", "source_ip",
			"processed", "processing_error", "received_at",
		}).AddRow(
			e.EventID, e.SwapID, e.OrderID, e.Payload, e.Headers, e.SourceIP,
			e.Processed, e.ProcessingError, e.ReceivedAt,
		))

	result, err := repo.GetByEventID(context.Background(), e.EventID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, e.SwapID, result.SwapID)
	assert.Equal(t, e.Payload, result.Payload)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_GetByEventID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM webhook_events WHERE event_id").
		WithArgs("evt-missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"event_id", "swap_id", "order_id", "payload", "headers", "source_ip",
			"processed", "processing_error", "received_at",
		}))

	result, err := repo.GetByEventID(context.Background(), "evt-missing")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_MarkProcessed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	orderID := uuid.New()

	mock.ExpectExec("UPDATE webhook_events SET processed").
		WithArgs(&orderID, (*string)(nil), "evt-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkProcessed(context.Background(), "evt-1", &orderID, nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_MarkProcessed_WithError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	failMsg := "reconciliation failed"

	mock.ExpectExec("UPDATE webhook_events SET processed").
		WithArgs((*uuid.UUID)(nil), &failMsg, "evt-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.MarkProcessed(context.Background(), "evt-1", nil, &failMsg)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepo_PurgeOlderThan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWebhookEventRepo(mock)
	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	mock.ExpectExec("DELETE FROM webhook_events WHERE received_at").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	purged, err := repo.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
