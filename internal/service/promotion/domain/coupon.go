package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrCouponNotFound        = errors.New("promotion: coupon not found")
	ErrCouponInactive        = errors.New("promotion: coupon is off the shelf")
	ErrCouponSoldOut         = errors.New("promotion: coupon sold out")
	ErrCouponAlreadyReceived = errors.New("promotion: coupon already received by user")
	ErrUserNotFound          = errors.New("promotion: user not found")
	ErrInsufficientPoints    = errors.New("promotion: insufficient points")
	ErrInvalidAmount         = errors.New("promotion: coupon amount must be positive")
)

// CouponStatus 是活动模板的上下架状态。
type CouponStatus int

const (
	CouponOff    CouponStatus = 0
	CouponActive CouponStatus = 1
)

// Coupon 是一个优惠活动模板，限量发放。
type Coupon struct {
	ID            int64
	Name          string
	Amount        decimal.Decimal
	MinSpend      decimal.Decimal
	TotalCount    int
	ReceivedCount int
	ValidUntil    time.Time
	Status        CouponStatus
}

// ClaimPercent 返回已领取比例，用于市场页的进度条。
func (c *Coupon) ClaimPercent() float64 {
	if c.TotalCount <= 0 {
		return 0
	}
	return float64(c.ReceivedCount) / float64(c.TotalCount)
}

// GrantStatus 是用户优惠券的使用状态。
type GrantStatus string

const (
	GrantUnused GrantStatus = "UNUSED"
	GrantUsed   GrantStatus = "USED"
)

// Grant 是用户持有的一张具体的优惠券。
// 名称、金额、门槛在领取时冗余快照，活动模板后续被修改不影响已发放的券。
type Grant struct {
	ID       int64
	Username string
	// CouponID 指向活动模板；积分兑换产生的券没有模板，置为 nil
	CouponID   *int64
	Name       string
	Amount     decimal.Decimal
	MinSpend   decimal.Decimal
	Status     GrantStatus
	ReceivedAt time.Time
}

// NewGrant 从活动模板发放一张券。
func NewGrant(c *Coupon, username string) *Grant {
	id := c.ID
	return &Grant{
		Username:   username,
		CouponID:   &id,
		Name:       c.Name,
		Amount:     c.Amount,
		MinSpend:   c.MinSpend,
		Status:     GrantUnused,
		ReceivedAt: time.Now(),
	}
}

// NewExchangedGrant 生成一张积分兑换的券，门槛固定为面额的十倍。
func NewExchangedGrant(username, name string, amount decimal.Decimal) *Grant {
	return &Grant{
		Username:   username,
		Name:       name,
		Amount:     amount,
		MinSpend:   amount.Mul(decimal.NewFromInt(10)),
		Status:     GrantUnused,
		ReceivedAt: time.Now(),
	}
}
