package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const dedupeTTL = 24 * time.Hour

// providerWebhook is the JSON body the exchange posts on every swap
// status change.
type providerWebhook struct {
	EventID       string `json:"event_id"`
	SwapID        string `json:"swap_id"`
	Status        string `json:"status"`
	DepositTxHash string `json:"deposit_tx_hash"`
	SettleTxHash  string `json:"settle_tx_hash"`
	DepositAmount string `json:"deposit_amount"`
}

// WebhookServiceImpl implements ports.WebhookIngestor. The audit record is
// written before reconciliation, so a delivery is never lost even when
// processing fails; the replay path recovers those.
type WebhookServiceImpl struct {
	eventRepo     ports.WebhookEventRepository
	dedupe        ports.EventDedupeCache
	reconciler    ports.Reconciler
	sigSvc        ports.SignatureService
	webhookSecret string
	log           zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl. An empty
// webhookSecret disables signature verification.
func NewWebhookService(
	eventRepo ports.WebhookEventRepository,
	dedupe ports.EventDedupeCache,
	reconciler ports.Reconciler,
	sigSvc ports.SignatureService,
	webhookSecret string,
	log zerolog.Logger,
) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		eventRepo:     eventRepo,
		dedupe:        dedupe,
		reconciler:    reconciler,
		sigSvc:        sigSvc,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// Receive records one inbound delivery and reconciles it. Validation and
// signature failures return errors; once the audit record exists, all
// processing failures are contained on it and acknowledged.
func (s *WebhookServiceImpl) Receive(ctx context.Context, req ports.IngestRequest) (*ports.IngestResult, error) {
	if s.webhookSecret != "" {
		if !s.sigSvc.Verify(s.webhookSecret, string(req.Payload), req.Signature) {
			s.log.Warn().Str("source_ip", req.SourceIP).Msg("webhook signature verification failed")
			return nil, apperror.ErrInvalidWebhookSignature()
		}
	}

	var body providerWebhook
	if err := json.Unmarshal(req.Payload, &body); err != nil {
		return nil, apperror.ErrMissingCorrelationID()
	}
	if body.SwapID == "" || body.Status == "" {
		return nil, apperror.ErrMissingCorrelationID()
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = body.EventID
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	// Redis fast path skips re-recording a redelivered event; the
	// database unique key is the real guard. Redeliveries still fall
	// through to reconciliation: the terminal guard and the same-status
	// no-op make the reapply safe, and a provider retry can heal an
	// order whose first delivery failed transiently.
	seen, err := s.dedupe.Seen(ctx, eventID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID).Msg("dedupe cache check failed, falling through to DB")
	}

	if !seen {
		headersJSON, _ := json.Marshal(req.Headers)
		event := &domain.WebhookEvent{
			EventID:    eventID,
			SwapID:     body.SwapID,
			Payload:    req.Payload,
			Headers:    string(headersJSON),
			SourceIP:   req.SourceIP,
			ReceivedAt: time.Now().UTC(),
		}
		inserted, err := s.eventRepo.InsertIgnoreDuplicate(ctx, event)
		if err != nil {
			return nil, apperror.ErrStorage(fmt.Errorf("record webhook event: %w", err))
		}
		if !inserted {
			s.log.Debug().Str("event_id", eventID).Msg("redelivered webhook event id, reconciling again")
		}
	}

	result := s.process(ctx, eventID, body)

	if err := s.dedupe.Mark(ctx, eventID, dedupeTTL); err != nil {
		s.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to mark event in dedupe cache")
	}

	return result, nil
}

// Replay re-runs reconciliation for a stored audit record.
func (s *WebhookServiceImpl) Replay(ctx context.Context, eventID string) (*ports.IngestResult, error) {
	event, err := s.eventRepo.GetByEventID(ctx, eventID)
	if err != nil {
		return nil, apperror.ErrStorage(fmt.Errorf("load webhook event: %w", err))
	}
	if event == nil {
		return nil, apperror.ErrNotFound("webhook event")
	}

	var body providerWebhook
	if err := json.Unmarshal(event.Payload, &body); err != nil {
		return nil, apperror.ErrMissingCorrelationID()
	}
	if body.SwapID == "" || body.Status == "" {
		return nil, apperror.ErrMissingCorrelationID()
	}

	s.log.Info().Str("event_id", eventID).Msg("replaying webhook event")
	return s.process(ctx, eventID, body), nil
}

// process feeds one recorded event through the reconciler and finalizes
// the audit record. It never returns an error: failures are captured on
// the record so the delivery can be acknowledged.
func (s *WebhookServiceImpl) process(ctx context.Context, eventID string, body providerWebhook) *ports.IngestResult {
	meta := ports.ApplyMeta{}
	if body.DepositTxHash != "" {
		meta.DepositTxHash = &body.DepositTxHash
	}
	if body.SettleTxHash != "" {
		meta.SettleTxHash = &body.SettleTxHash
	}
	if body.DepositAmount != "" {
		if amt, err := decimal.NewFromString(body.DepositAmount); err == nil {
			meta.DepositAmount = &amt
		}
	}

	order, err := s.reconciler.ApplyBySwapID(ctx, body.SwapID, body.Status, meta)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "ORD_001" {
			// No order for this swap id. Acknowledged so the provider stops
			// retrying; the audit record keeps the reason for investigation.
			reason := fmt.Sprintf("no order for swap id %s", body.SwapID)
			s.markProcessed(ctx, eventID, nil, &reason)
			s.log.Warn().Str("event_id", eventID).Str("swap_id", body.SwapID).Msg("webhook for unknown swap")
			return &ports.IngestResult{EventID: eventID, Result: ports.IngestResultUnknownSwap}
		}

		msg := err.Error()
		s.markProcessed(ctx, eventID, nil, &msg)
		s.log.Error().Err(err).Str("event_id", eventID).Str("swap_id", body.SwapID).Msg("webhook reconciliation failed")
		return &ports.IngestResult{EventID: eventID, Result: ports.IngestResultErrorRecorded}
	}

	s.markProcessed(ctx, eventID, &order.ID, nil)

	target, known := domain.MapProviderStatus(body.Status)
	applied := known && (order.Status == target ||
		order.Status == domain.OrderStatusUnderpaid ||
		order.Status == domain.OrderStatusOverpaid)
	result := ports.IngestResultIgnored
	if applied {
		result = ports.IngestResultApplied
	}
	return &ports.IngestResult{EventID: eventID, Result: result, OrderID: &order.ID}
}

func (s *WebhookServiceImpl) markProcessed(ctx context.Context, eventID string, orderID *uuid.UUID, processingError *string) {
	if err := s.eventRepo.MarkProcessed(ctx, eventID, orderID, processingError); err != nil {
		s.log.Error().Err(err).Str("event_id", eventID).Msg("failed to finalize webhook audit record")
	}
}
