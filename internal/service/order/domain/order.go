package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address 是下单时的收货地址快照参数。
type Address struct {
	Contact string
	Phone   string
	Detail  string
}

// OrderLine 是订单行项目。商品名称/图片/单价在下单时刻快照入行，
// 之后商品目录的任何改动都不会追溯影响已成交的订单。
type OrderLine struct {
	ID          int64
	ProductID   int64
	ProductName string
	ImageURL    string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Total 返回该行的小计金额。
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order 是订单聚合根，独占拥有其行项目。
// 状态流转只允许经由本文件中的业务方法进行。
type Order struct {
	ID       int64
	OrderNo  string
	Username string
	Lines    []OrderLine

	// 收货人信息为创建时的快照，不引用用户地址簿
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string

	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Discount    decimal.Decimal
	TotalPrice  decimal.Decimal

	// CouponGrantID 记录本单核销了哪张用户优惠券（仅引用，不拷贝）
	CouponGrantID *int64

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 创建一个处于 UNPAID 状态的空订单。
func NewOrder(username string, addr Address) (*Order, error) {
	if addr.Contact == "" || addr.Detail == "" {
		return nil, ErrMissingAddress
	}
	now := time.Now()
	return &Order{
		OrderNo:         uuid.New().String(),
		Username:        username,
		ReceiverName:    addr.Contact,
		ReceiverPhone:   addr.Phone,
		ReceiverAddress: addr.Detail,
		Status:          StatusUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AddLine 以商品当前信息做快照，向订单追加一个行项目。
func (o *Order) AddLine(p *Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	o.Lines = append(o.Lines, OrderLine{
		ProductID:   p.ID,
		ProductName: p.Name,
		ImageURL:    p.ImageURL,
		UnitPrice:   p.UnitPrice,
		Quantity:    quantity,
	})
	return nil
}

// PricingPolicy 是运费规则参数。
type PricingPolicy struct {
	// 小计不超过该门槛时收取固定运费，超过则免邮
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

// DefaultPricingPolicy 返回 200 包邮、运费 20 的默认规则。
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(200),
		ShippingFee:           decimal.NewFromInt(20),
	}
}

// Price 计算订单金额并可选地核销一张优惠券。
//
// 运费按未扣优惠的商品小计判定，优惠金额作用于含运费的总价：
// 优惠券不能把比价金额拉低来规避免邮门槛。总价向下保底为零。
func (o *Order) Price(policy PricingPolicy, grant *CouponGrant) error {
	if len(o.Lines) == 0 {
		return ErrEmptyOrder
	}

	subtotal := decimal.Zero
	for _, line := range o.Lines {
		subtotal = subtotal.Add(line.Total())
	}

	shipping := decimal.Zero
	if subtotal.LessThanOrEqual(policy.FreeShippingThreshold) {
		shipping = policy.ShippingFee
	}

	total := subtotal.Add(shipping)
	discount := decimal.Zero
	if grant != nil {
		// 门槛比较针对未扣优惠、不含运费的小计
		if err := grant.Redeemable(o.Username, subtotal); err != nil {
			return err
		}
		discount = grant.Amount
		total = total.Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}
		id := grant.ID
		o.CouponGrantID = &id
	}

	o.Subtotal = subtotal
	o.ShippingFee = shipping
	o.Discount = discount
	o.TotalPrice = total
	return nil
}

// transition 执行一次经过迁移表校验的状态变更。
func (o *Order) transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

// Pay 将订单从待支付置为已支付。
func (o *Order) Pay() error {
	return o.transition(StatusPaid)
}

// Ship 发货。
func (o *Order) Ship() error {
	return o.transition(StatusShipped)
}

// Deliver 签收送达。
func (o *Order) Deliver() error {
	return o.transition(StatusDelivered)
}

// Cancel 取消订单，只允许取消未支付的订单。
func (o *Order) Cancel() error {
	return o.transition(StatusCancelled)
}

// RequestRefund 申请售后。仅限已送达的订单，且必须在下单后 window 时间内。
func (o *Order) RequestRefund(now time.Time, window time.Duration) error {
	if !CanTransition(o.Status, StatusRefundPending) {
		return ErrInvalidTransition
	}
	if window > 0 && now.After(o.CreatedAt.Add(window)) {
		return ErrRefundWindowExpired
	}
	return o.transition(StatusRefundPending)
}

// ApproveRefund 审核通过，订单进入退款成功终态。库存返还由应用层在同一事务内执行。
func (o *Order) ApproveRefund() error {
	return o.transition(StatusRefundSuccess)
}

// RejectRefund 审核驳回，订单回到已送达状态。
func (o *Order) RejectRefund() error {
	return o.transition(StatusDelivered)
}

// IsOwnedBy 校验订单归属。
func (o *Order) IsOwnedBy(username string) bool {
	return o.Username == username
}
