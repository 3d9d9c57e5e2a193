package port

import (
	"context"

	"yuxian/internal/service/order/domain"
)

// InventoryService 是库存台账的出站端口。
//
// Reserve/Release 必须实现为存储层的单次条件更新，不允许读取-比较-写回：
// 两个并发请求争抢最后一件库存时，恰好只有一个 Reserve 成功。
type InventoryService interface {
	// GetProduct 读取商品快照信息，未找到时返回 domain.ErrProductNotFound。
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)

	// Reserve 条件扣减库存：仅当 stock >= quantity 时生效，
	// 否则返回 domain.ErrInsufficientStock。
	Reserve(ctx context.Context, productID int64, quantity int) error

	// Release 无条件返还库存，用于售后通过和取消订单的补偿动作。
	Release(ctx context.Context, productID int64, quantity int) error
}

// CouponService 是优惠券台账的出站端口。核销必须与订单写入处于同一事务，
// 崩溃回滚后券保持未使用，不会出现"券被扣、单没建"的中间态。
type CouponService interface {
	// LoadGrant 加载用户优惠券，未找到时返回 domain.ErrCouponNotFound。
	LoadGrant(ctx context.Context, grantID int64) (*domain.CouponGrant, error)

	// MarkUsed 条件更新 UNUSED -> USED；状态不匹配（并发已核销）
	// 时返回 domain.ErrCouponAlreadyUsed。
	MarkUsed(ctx context.Context, grantID int64) error
}

// NotificationProducer 是支付成功通知的出站端口，fire-and-forget。
type NotificationProducer interface {
	OrderPaid(ctx context.Context, event *domain.OrderPaidEvent) error
}

// Repos 是绑定到同一个事务的仓储集合。
type Repos struct {
	Orders    domain.OrderRepository
	Feedback  domain.RefundFeedbackRepository
	Inventory InventoryService
	Coupons   CouponService
}

// TxManager 在一个存储事务内执行 fn。fn 返回错误时整个事务回滚，
// 期间发生的库存扣减、券核销和订单写入原子地一起失效。
type TxManager interface {
	Transact(ctx context.Context, fn func(r Repos) error) error
}
