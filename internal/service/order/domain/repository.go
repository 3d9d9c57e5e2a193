package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	// Save 持久化订单及其全部行项目（创建或更新）。
	Save(ctx context.Context, order *Order) error

	// FindByID 加载完整的订单聚合，未找到时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id int64) (*Order, error)

	// ListByUsername 按创建时间倒序返回用户的订单。
	ListByUsername(ctx context.Context, username string) ([]*Order, error)

	// ListByStatus 按创建时间倒序返回处于指定状态的订单。
	ListByStatus(ctx context.Context, status Status) ([]*Order, error)
}

// RefundFeedbackRepository 管理售后审计记录，只支持追加和按订单查询。
type RefundFeedbackRepository interface {
	Append(ctx context.Context, fb *RefundFeedback) error
	ListByOrderID(ctx context.Context, orderID int64) ([]*RefundFeedback, error)
}
