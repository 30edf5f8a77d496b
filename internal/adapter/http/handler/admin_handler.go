package handler

import (
	"strconv"
	"time"

	"swapgate/internal/adapter/http/dto"
	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"
	"swapgate/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the operator endpoints: order listing, webhook
// event replay and retention purge.
type AdminHandler struct {
	orderRepo       ports.OrderRepository
	eventRepo       ports.WebhookEventRepository
	ingestor        ports.WebhookIngestor
	retentionMaxAge time.Duration
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	orderRepo ports.OrderRepository,
	eventRepo ports.WebhookEventRepository,
	ingestor ports.WebhookIngestor,
	retentionMaxAge time.Duration,
) *AdminHandler {
	return &AdminHandler{
		orderRepo:       orderRepo,
		eventRepo:       eventRepo,
		ingestor:        ingestor,
		retentionMaxAge: retentionMaxAge,
	}
}

// ListOrders handles GET /api/v1/admin/orders.
// Query params: status, from, to (Unix timestamps), page, page_size.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	params := ports.OrderListParams{Page: 1, PageSize: 20}

	if s := c.Query("status"); s != "" {
		status := domain.OrderStatus(s)
		params.Status = &status
	}
	if f := c.Query("from"); f != "" {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("from must be a Unix timestamp"))
			return
		}
		params.From = &v
	}
	if t := c.Query("to"); t != "" {
		v, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("to must be a Unix timestamp"))
			return
		}
		params.To = &v
	}
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			params.Page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			params.PageSize = v
		}
	}

	orders, total, err := h.orderRepo.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	response.OK(c, dto.OrderListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// ReplayEvent handles POST /api/v1/admin/webhook-events/:event_id/replay.
func (h *AdminHandler) ReplayEvent(c *gin.Context) {
	result, err := h.ingestor.Replay(c.Request.Context(), c.Param("event_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// PurgeEvents handles POST /api/v1/admin/retention/purge. Removes
// webhook audit records older than the configured retention window.
func (h *AdminHandler) PurgeEvents(c *gin.Context) {
	cutoff := time.Now().Add(-h.retentionMaxAge)
	purged, err := h.eventRepo.PurgeOlderThan(c.Request.Context(), cutoff)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.PurgeResponse{Purged: purged})
}

// SweepHandler exposes the monitor pass as an internal endpoint so
// deployments without the built-in ticker can trigger sweeps externally.
type SweepHandler struct {
	monitor ports.Monitor
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler(monitor ports.Monitor) *SweepHandler {
	return &SweepHandler{monitor: monitor}
}

// Run handles POST /internal/sweep.
func (h *SweepHandler) Run(c *gin.Context) {
	summary, err := h.monitor.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
