package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreated 统计成功创建的订单数。
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yuxian_orders_created_total",
		Help: "Number of orders successfully created.",
	})

	// StockConflicts 统计因库存不足被拒的下单数，秒杀场景下的重要观测指标。
	StockConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yuxian_stock_conflicts_total",
		Help: "Number of order attempts rejected due to insufficient stock.",
	})

	// CouponConflicts 统计优惠券核销冲突（已被使用/不满足门槛等）。
	CouponConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yuxian_coupon_conflicts_total",
		Help: "Number of coupon redemptions rejected by business rules.",
	})

	// RefundsAudited 按结果统计售后审核次数。
	RefundsAudited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yuxian_refunds_audited_total",
		Help: "Number of refund audits, partitioned by outcome.",
	}, []string{"outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yuxian_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware 记录每个 HTTP 请求的耗时和状态码。
// path 使用注册时的路由模式而不是原始 URL，避免 label 基数爆炸。
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpDuration.
			WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
