package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel 对应数据库中的 products 表。
// stock 列只允许通过条件更新语句变更，见 GormInventoryService。
type ProductModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Category    string `gorm:"size:50;index"`
	Name        string `gorm:"size:100"`
	Origin      string `gorm:"size:100"`
	Description string `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2)"`
	Stock       int             `gorm:"not null;default:0"`
	ImageURL    string          `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductModel) TableName() string { return "products" }

// OrderModel 对应 orders 表。
type OrderModel struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	OrderNo  string `gorm:"size:36;uniqueIndex"`
	Username string `gorm:"size:64;index"`

	ReceiverName    string `gorm:"size:64"`
	ReceiverPhone   string `gorm:"size:32"`
	ReceiverAddress string `gorm:"size:255"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2)"`
	ShippingFee decimal.Decimal `gorm:"type:decimal(10,2)"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,2)"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(10,2)"`

	CouponGrantID *int64

	Status    string    `gorm:"size:20;index"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	// 订单独占其行项目，硬删除路径上级联清理
	Items []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 对应 order_items 表，行内字段均为下单时刻的快照。
type OrderItemModel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	OrderID     int64 `gorm:"index;not null"`
	ProductID   int64
	ProductName string          `gorm:"size:100"`
	ImageURL    string          `gorm:"size:255"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2)"`
	Quantity    int
}

func (OrderItemModel) TableName() string { return "order_items" }

// RefundFeedbackModel 对应 refund_feedback 表，只插入不更新。
type RefundFeedbackModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   int64  `gorm:"index;not null"`
	Role      string `gorm:"size:16"`
	Content   string `gorm:"size:500"`
	Operator  string `gorm:"size:64"`
	CreatedAt time.Time
}

func (RefundFeedbackModel) TableName() string { return "refund_feedback" }
