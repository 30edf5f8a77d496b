package handler

import (
	"swapgate/internal/adapter/http/dto"
	"swapgate/internal/core/domain"
	"swapgate/internal/core/ports"
	"swapgate/pkg/apperror"
	"swapgate/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderHandler handles the public checkout and status endpoints.
type OrderHandler struct {
	checkoutSvc ports.CheckoutService
	poller      ports.PollWorker
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkoutSvc ports.CheckoutService, poller ports.PollWorker) *OrderHandler {
	return &OrderHandler{checkoutSvc: checkoutSvc, poller: poller}
}

// CreateOrder handles POST /api/v1/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	settleAmount, err := decimal.NewFromString(req.SettleAmount)
	if err != nil {
		response.Error(c, apperror.Validation("settle_amount is not a valid decimal"))
		return
	}

	order, err := h.checkoutSvc.CreateOrder(c.Request.Context(), ports.CreateOrderRequest{
		DepositAsset:   req.DepositAsset,
		DepositNetwork: req.DepositNetwork,
		SettleAmount:   settleAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:number.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.checkoutSvc.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(order))
}

// RefreshOrder handles POST /api/v1/orders/:number/refresh. It pulls the
// provider's current swap status on demand, for when webhooks are late.
func (h *OrderHandler) RefreshOrder(c *gin.Context) {
	order, err := h.checkoutSvc.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.poller.Poll(c.Request.Context(), order.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toOrderResponse(updated))
}

// ListAssets handles GET /api/v1/assets.
func (h *OrderHandler) ListAssets(c *gin.Context) {
	assets, err := h.checkoutSvc.ListAssets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assets)
}

// toOrderResponse converts domain.Order to DTO.
func toOrderResponse(o *domain.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		DepositAsset:   o.DepositAsset,
		DepositNetwork: o.DepositNetwork,
		DepositAddress: o.DepositAddress,
		DepositAmount:  o.DepositAmount.String(),
		DepositTxHash:  o.DepositTxHash,
		SettleAsset:    o.SettleAsset,
		SettleNetwork:  o.SettleNetwork,
		SettleAmount:   o.SettleAmount.String(),
		SettleTxHash:   o.SettleTxHash,
		QuoteExpiresAt: o.QuoteExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		CreatedAt:      o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if o.CompletedAt != nil {
		s := o.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.CompletedAt = &s
	}
	for _, e := range o.StatusHistory {
		resp.StatusHistory = append(resp.StatusHistory, dto.StatusEntryResponse{
			Status:    string(e.Status),
			Note:      e.Note,
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return resp
}
