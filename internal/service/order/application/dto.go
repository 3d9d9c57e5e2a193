package application

import (
	"yuxian/internal/service/order/domain"
)

// LineRequest 是下单请求中的一个购物车条目。
type LineRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// AddressRequest 是下单请求中的收货地址。
type AddressRequest struct {
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Detail  string `json:"detail"`
}

// CreateOrderRequest 是创建订单的入参。
type CreateOrderRequest struct {
	Username      string         `json:"username"`
	Lines         []LineRequest  `json:"lines"`
	Address       AddressRequest `json:"address"`
	CouponGrantID *int64         `json:"couponGrantId,omitempty"`
}

// CreateOrderResponse 返回新订单的标识和应付金额。
type CreateOrderResponse struct {
	OrderID    int64  `json:"orderId"`
	OrderNo    string `json:"orderNo"`
	TotalPrice string `json:"totalPrice"`
}

// ApplyRefundRequest 是用户发起售后申请的入参。
type ApplyRefundRequest struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
	Type     string `json:"type"`
}

// AuditRefundRequest 是管理员审核售后的入参。
type AuditRefundRequest struct {
	AdminUsername string `json:"adminUsername"`
	Approve       bool   `json:"approve"`
	Reason        string `json:"reason,omitempty"`
}

// OrderLineView 是行项目的对外视图。
type OrderLineView struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	ImageURL    string `json:"imageUrl"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// OrderView 是订单的对外视图。
type OrderView struct {
	ID              int64           `json:"id"`
	OrderNo         string          `json:"orderNo"`
	Username        string          `json:"username"`
	Lines           []OrderLineView `json:"lines"`
	ReceiverName    string          `json:"receiverName"`
	ReceiverPhone   string          `json:"receiverPhone"`
	ReceiverAddress string          `json:"receiverAddress"`
	Subtotal        string          `json:"subtotal"`
	ShippingFee     string          `json:"shippingFee"`
	Discount        string          `json:"discount"`
	TotalPrice      string          `json:"totalPrice"`
	Status          string          `json:"status"`
	CreatedAt       string          `json:"createdAt"`
}

// FeedbackView 是售后反馈记录的对外视图。
type FeedbackView struct {
	OrderID   int64  `json:"orderId"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Operator  string `json:"operator"`
	CreatedAt string `json:"createdAt"`
}

const timeLayout = "2006-01-02 15:04:05"

func toOrderView(o *domain.Order) *OrderView {
	view := &OrderView{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		Username:        o.Username,
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		Subtotal:        o.Subtotal.StringFixed(2),
		ShippingFee:     o.ShippingFee.StringFixed(2),
		Discount:        o.Discount.StringFixed(2),
		TotalPrice:      o.TotalPrice.StringFixed(2),
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt.Format(timeLayout),
	}
	for _, line := range o.Lines {
		view.Lines = append(view.Lines, OrderLineView{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ImageURL:    line.ImageURL,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Quantity:    line.Quantity,
		})
	}
	return view
}

func toFeedbackView(fb *domain.RefundFeedback) *FeedbackView {
	return &FeedbackView{
		OrderID:   fb.OrderID,
		Role:      string(fb.Role),
		Content:   fb.Content,
		Operator:  fb.Operator,
		CreatedAt: fb.CreatedAt.Format(timeLayout),
	}
}
