package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"yuxian/internal/pkg/metrics"
	"yuxian/internal/service/promotion/application"
	"yuxian/internal/service/promotion/domain"
)

// PromotionHandler 封装优惠服务的 HTTP 处理器。
type PromotionHandler struct {
	service *application.PromotionService
}

// NewPromotionHandler 创建一个新的 HTTP 处理器实例。
func NewPromotionHandler(service *application.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *PromotionHandler) RegisterRoutes(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, metrics.Middleware(pattern, fn))
	}
	handle("GET /api/coupons/market", h.handleMarket)
	handle("GET /api/coupons/my", h.handleMyCoupons)
	handle("POST /api/coupons/{id}/receive", h.handleReceive)
	handle("POST /api/coupons/exchange", h.handleExchange)
}

func (h *PromotionHandler) handleMarket(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	username := r.URL.Query().Get("username")
	views, err := h.service.MarketList(ctx, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, views)
}

func (h *PromotionHandler) handleMyCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	views, err := h.service.MyCoupons(ctx, username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, views)
}

func (h *PromotionHandler) handleReceive(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	couponID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid coupon id", http.StatusBadRequest)
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}

	grant, err := h.service.Receive(ctx, couponID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, grant)
}

func (h *PromotionHandler) handleExchange(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Exchange(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrCouponNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAmount):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrCouponInactive),
		errors.Is(err, domain.ErrCouponSoldOut),
		errors.Is(err, domain.ErrCouponAlreadyReceived),
		errors.Is(err, domain.ErrInsufficientPoints):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), statusCode)
}
