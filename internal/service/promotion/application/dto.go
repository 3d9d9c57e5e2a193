package application

import "yuxian/internal/service/promotion/domain"

// MarketCouponView 是优惠券市场页的条目。
type MarketCouponView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Amount      string  `json:"amount"`
	MinSpend    string  `json:"minSpend"`
	ValidUntil  string  `json:"validUntil"`
	Percent     float64 `json:"percent"`
	HasReceived bool    `json:"hasReceived"`
}

// GrantView 是"我的优惠券"条目。
type GrantView struct {
	ID         int64  `json:"id"`
	CouponID   *int64 `json:"couponId,omitempty"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	MinSpend   string `json:"minSpend"`
	Status     string `json:"status"`
	ReceivedAt string `json:"receivedAt"`
}

// ExchangeRequest 是积分兑换优惠券的入参。
type ExchangeRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Cost     int    `json:"cost"`
}

// ExchangeResponse 返回兑换结果和剩余积分。
type ExchangeResponse struct {
	Success bool `json:"success"`
	Points  int  `json:"points"`
}

const timeLayout = "2006-01-02 15:04:05"

func toGrantView(g *domain.Grant) *GrantView {
	return &GrantView{
		ID:         g.ID,
		CouponID:   g.CouponID,
		Name:       g.Name,
		Amount:     g.Amount.StringFixed(2),
		MinSpend:   g.MinSpend.StringFixed(2),
		Status:     string(g.Status),
		ReceivedAt: g.ReceivedAt.Format(timeLayout),
	}
}
