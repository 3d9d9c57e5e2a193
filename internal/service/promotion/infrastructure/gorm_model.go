package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponModel 对应 coupons 表（活动模板）。
type CouponModel struct {
	ID            int64           `gorm:"primaryKey;autoIncrement"`
	Name          string          `gorm:"size:100"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2)"`
	MinSpend      decimal.Decimal `gorm:"type:decimal(10,2)"`
	TotalCount    int             `gorm:"not null;default:0"`
	ReceivedCount int             `gorm:"not null;default:0"`
	ValidUntil    time.Time
	Status        int `gorm:"not null;default:1"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CouponModel) TableName() string { return "coupons" }

// UserCouponModel 对应 user_coupons 表。
// (username, coupon_id) 上的唯一索引兜底拦截重复领取。
type UserCouponModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"size:64;index;uniqueIndex:uniq_user_coupon"`
	CouponID *int64 `gorm:"uniqueIndex:uniq_user_coupon"`

	// 领取时的快照字段
	Name     string          `gorm:"size:100"`
	Amount   decimal.Decimal `gorm:"type:decimal(10,2)"`
	MinSpend decimal.Decimal `gorm:"type:decimal(10,2)"`

	Status     string `gorm:"size:16;default:UNUSED"`
	ReceivedAt time.Time
}

func (UserCouponModel) TableName() string { return "user_coupons" }

// UserModel 只承载积分兑换所需的列；账号资料由身份服务维护。
type UserModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Username string `gorm:"size:64;uniqueIndex"`
	Points   int    `gorm:"not null;default:0"`
}

func (UserModel) TableName() string { return "users" }

// AutoMigrate 建立优惠侧的表结构。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CouponModel{},
		&UserCouponModel{},
		&UserModel{},
	)
}
