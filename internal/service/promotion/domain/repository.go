package domain

import "context"

// CouponRepository 管理活动模板。
type CouponRepository interface {
	// FindByID 未找到时返回 ErrCouponNotFound。
	FindByID(ctx context.Context, id int64) (*Coupon, error)

	// ListActive 返回所有上架中的活动。
	ListActive(ctx context.Context) ([]*Coupon, error)

	// IncrementReceived 条件自增已领取数：仅当 received_count < total_count
	// 时生效，否则返回 ErrCouponSoldOut。限量争抢由这一条语句裁决。
	IncrementReceived(ctx context.Context, id int64) error
}

// GrantRepository 管理用户持有的优惠券。
type GrantRepository interface {
	// Create 落一张新券；(username, coupon_id) 唯一索引冲突时
	// 返回 ErrCouponAlreadyReceived。
	Create(ctx context.Context, grant *Grant) error

	// ListByUsername 按领取时间倒序返回用户的券。
	ListByUsername(ctx context.Context, username string) ([]*Grant, error)

	// HasReceived 判断用户是否已领取过该活动的券。
	HasReceived(ctx context.Context, username string, couponID int64) (bool, error)
}

// UserRepository 只暴露积分兑换所需的最小能力；账号体系在别的服务。
type UserRepository interface {
	// DeductPoints 条件扣减积分：仅当余额足够时生效，
	// 否则返回 ErrInsufficientPoints。返回扣减后的余额。
	DeductPoints(ctx context.Context, username string, cost int) (int, error)
}

// Repos 是绑定到同一事务的仓储集合。
type Repos struct {
	Coupons CouponRepository
	Grants  GrantRepository
	Users   UserRepository
}

// TxManager 在一个存储事务内执行 fn，语义与订单侧一致。
type TxManager interface {
	Transact(ctx context.Context, fn func(r Repos) error) error
}
