package domain

// OrderPaidEvent 是支付成功后推送给管理端的通知事件。
// 通知是 best-effort 的：支付事务提交后才发送，发送失败只记日志。
type OrderPaidEvent struct {
	Tag        string `json:"tag"`
	OrderID    int64  `json:"orderId"`
	OrderNo    string `json:"orderNo"`
	Username   string `json:"username"`
	TotalPrice string `json:"totalPrice"`
}

// EventTagNewOrder 是管理端约定的新订单提醒标记。
const EventTagNewOrder = "NEW_ORDER"
