package domain

// Status 定义了订单的生命周期状态。
type Status string

const (
	StatusUnpaid        Status = "UNPAID"         // 已创建，待支付
	StatusPaid          Status = "PAID"           // 已支付，待发货
	StatusShipped       Status = "SHIPPED"        // 运输中
	StatusDelivered     Status = "DELIVERED"      // 已送达
	StatusRefundPending Status = "REFUND_PENDING" // 售后处理中
	StatusRefundSuccess Status = "REFUND_SUCCESS" // 退款成功（终态）
	StatusCancelled     Status = "CANCELLED"      // 已取消（终态）
)

// transitions 是订单状态机的迁移表，所有状态变更必须经过 CanTransition 校验。
var transitions = map[Status][]Status{
	StatusUnpaid:        {StatusPaid, StatusCancelled},
	StatusPaid:          {StatusShipped},
	StatusShipped:       {StatusDelivered},
	StatusDelivered:     {StatusRefundPending},
	StatusRefundPending: {StatusRefundSuccess, StatusDelivered},
}

// CanTransition 判断 from -> to 是否为合法的状态迁移。
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断状态是否为终态。
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}
