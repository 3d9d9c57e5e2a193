package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"yuxian/internal/pkg/metrics"
	"yuxian/internal/service/order/application"
	"yuxian/internal/service/order/domain"
	"yuxian/internal/service/order/infrastructure/adapter"
)

// OrderHandler 封装订单服务的 HTTP 处理器。
type OrderHandler struct {
	service *application.OrderApplicationService
	hub     *adapter.Hub
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例。
func NewOrderHandler(service *application.OrderApplicationService, hub *adapter.Hub) *OrderHandler {
	return &OrderHandler{service: service, hub: hub}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(pattern, fn))
	}
	handle("POST /api/orders", h.handleCreateOrder)
	handle("GET /api/orders", h.handleListOrders)
	handle("POST /api/orders/{id}/pay", h.handlePayOrder)
	handle("POST /api/orders/{id}/cancel", h.handleCancelOrder)
	handle("POST /api/orders/{id}/refund", h.handleApplyRefund)
	handle("GET /api/orders/{id}/feedback", h.handleRefundFeedback)
	handle("GET /api/orders/admin/refunds", h.handleListRefundPending)
	handle("POST /api/orders/admin/refunds/{id}/audit", h.handleAuditRefund)
	handle("POST /api/orders/admin/{id}/ship", h.handleShipOrder)
	handle("POST /api/orders/admin/{id}/deliver", h.handleDeliverOrder)

	if h.hub != nil {
		mux.HandleFunc("GET /ws/orders", h.hub.ServeWS)
	}
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreateOrder(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	orders, err := h.service.ListOrders(ctx, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, orders)
}

func (h *OrderHandler) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orderID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.PayOrder(ctx, orderID, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orderID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.CancelOrder(ctx, orderID, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *OrderHandler) handleApplyRefund(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orderID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req application.ApplyRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	if err := h.service.ApplyRefund(ctx, orderID, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *OrderHandler) handleRefundFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orderID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	records, err := h.service.GetRefundFeedback(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, records)
}

func (h *OrderHandler) handleListRefundPending(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orders, err := h.service.ListRefundPending(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, orders)
}

func (h *OrderHandler) handleAuditRefund(w http.ResponseWriter, r *http.Request) {
	ctx := extract(r)
	orderID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req application.AuditRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.AdminUsername == "" {
		http.Error(w, "adminUsername is required", http.StatusBadRequest)
		return
	}

	if err := h.service.AuditRefund(ctx, orderID, &req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *OrderHandler) handleShipOrder(w http.ResponseWriter, r *http.Request) {
	h.handleAdminTransition(w, r, h.service.ShipOrder)
}

func (h *OrderHandler) handleDeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.handleAdminTransition(w, r, h.service.DeliverOrder)
}

func (h *OrderHandler) handleAdminTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, orderID int64) error) {
	ctx := extract(r)
	orderID, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}
	if err := fn(ctx, orderID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func extract(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 按错误类型映射 HTTP 状态码。
func writeError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrMissingAddress),
		errors.Is(err, domain.ErrInvalidQuantity):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCouponNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrNotOrderOwner),
		errors.Is(err, domain.ErrCouponOwnershipMismatch):
		statusCode = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrCouponAlreadyUsed),
		errors.Is(err, domain.ErrCouponThresholdNotMet),
		errors.Is(err, domain.ErrRefundWindowExpired):
		statusCode = http.StatusConflict
	case errors.Is(err, domain.ErrStorageTransient):
		statusCode = http.StatusServiceUnavailable
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
