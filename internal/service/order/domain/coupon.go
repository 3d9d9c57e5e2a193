package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GrantStatus 是用户优惠券的使用状态。
type GrantStatus string

const (
	GrantUnused GrantStatus = "UNUSED"
	GrantUsed   GrantStatus = "USED"
)

// CouponGrant 是一张用户优惠券在核销路径上的视图。
// 金额与门槛是领取时的快照，活动模板后续被修改不影响已发放的券。
type CouponGrant struct {
	ID         int64
	Username   string
	Name       string
	Amount     decimal.Decimal
	MinSpend   decimal.Decimal
	Status     GrantStatus
	ReceivedAt time.Time
}

// Redeemable 按固定顺序校验该券能否被 username 在小计 subtotal 的订单上核销。
// 校验顺序约定：归属 -> 状态 -> 门槛，先命中的错误先返回。
func (g *CouponGrant) Redeemable(username string, subtotal decimal.Decimal) error {
	if g.Username != username {
		return ErrCouponOwnershipMismatch
	}
	if g.Status != GrantUnused {
		return ErrCouponAlreadyUsed
	}
	if subtotal.LessThan(g.MinSpend) {
		return ErrCouponThresholdNotMet
	}
	return nil
}
