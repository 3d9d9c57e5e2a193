package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("alice", Address{Contact: "张三", Phone: "13800000000", Detail: "杭州市西湖区 1 号"})
	require.NoError(t, err)
	return o
}

func addLine(t *testing.T, o *Order, id int64, price string, qty int) {
	t.Helper()
	require.NoError(t, o.AddLine(&Product{ID: id, Name: "三文鱼", UnitPrice: dec(price)}, qty))
}

func TestNewOrder(t *testing.T) {
	o := newTestOrder(t)
	assert.Equal(t, StatusUnpaid, o.Status)
	assert.NotEmpty(t, o.OrderNo)
	assert.Equal(t, "张三", o.ReceiverName)

	_, err := NewOrder("alice", Address{Phone: "13800000000"})
	assert.ErrorIs(t, err, ErrMissingAddress)

	_, err = NewOrder("alice", Address{Contact: "张三"})
	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	o := newTestOrder(t)
	p := &Product{ID: 1, Name: "大闸蟹", UnitPrice: dec("99.00")}
	assert.ErrorIs(t, o.AddLine(p, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, o.AddLine(p, -2), ErrInvalidQuantity)
	assert.NoError(t, o.AddLine(p, 2))
	assert.Len(t, o.Lines, 1)
	assert.True(t, o.Lines[0].Total().Equal(dec("198.00")))
}

func TestPriceShippingRules(t *testing.T) {
	policy := DefaultPricingPolicy()

	tests := []struct {
		name         string
		price        string
		qty          int
		wantShipping string
		wantTotal    string
	}{
		{"小计低于门槛收运费", "180.00", 1, "20.00", "200.00"},
		{"小计恰好等于门槛仍收运费", "200.00", 1, "20.00", "220.00"},
		{"小计超过门槛免邮", "200.01", 1, "0.00", "200.01"},
		{"多行合并计算小计", "80.00", 3, "0.00", "240.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t)
			addLine(t, o, 1, tt.price, tt.qty)
			require.NoError(t, o.Price(policy, nil))
			assert.True(t, o.ShippingFee.Equal(dec(tt.wantShipping)), "shipping = %s", o.ShippingFee)
			assert.True(t, o.TotalPrice.Equal(dec(tt.wantTotal)), "total = %s", o.TotalPrice)
		})
	}
}

func TestPriceEmptyOrder(t *testing.T) {
	o := newTestOrder(t)
	assert.ErrorIs(t, o.Price(DefaultPricingPolicy(), nil), ErrEmptyOrder)
}

func TestPriceWithCoupon(t *testing.T) {
	policy := DefaultPricingPolicy()

	t.Run("正常核销", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(t, o, 1, "150.00", 2) // 小计 300，免邮
		grant := &CouponGrant{ID: 7, Username: "alice", Amount: dec("30.00"), MinSpend: dec("100.00"), Status: GrantUnused}
		require.NoError(t, o.Price(policy, grant))
		assert.True(t, o.Discount.Equal(dec("30.00")))
		assert.True(t, o.TotalPrice.Equal(dec("270.00")))
		require.NotNil(t, o.CouponGrantID)
		assert.Equal(t, int64(7), *o.CouponGrantID)
	})

	t.Run("门槛按未扣优惠小计判定运费", func(t *testing.T) {
		// 小计 180 <= 200 收运费 20，优惠 50 作用于含运费总价 200
		o := newTestOrder(t)
		addLine(t, o, 1, "180.00", 1)
		grant := &CouponGrant{ID: 8, Username: "alice", Amount: dec("50.00"), MinSpend: dec("100.00"), Status: GrantUnused}
		require.NoError(t, o.Price(policy, grant))
		assert.True(t, o.ShippingFee.Equal(dec("20.00")))
		assert.True(t, o.TotalPrice.Equal(dec("150.00")))
	})

	t.Run("总价向下保底为零", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(t, o, 1, "30.00", 1)
		grant := &CouponGrant{ID: 9, Username: "alice", Amount: dec("100.00"), MinSpend: dec("10.00"), Status: GrantUnused}
		require.NoError(t, o.Price(policy, grant))
		assert.True(t, o.TotalPrice.IsZero(), "total = %s", o.TotalPrice)
	})

	t.Run("非本人的券", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(t, o, 1, "300.00", 1)
		grant := &CouponGrant{ID: 10, Username: "bob", Amount: dec("30.00"), MinSpend: dec("100.00"), Status: GrantUnused}
		assert.ErrorIs(t, o.Price(policy, grant), ErrCouponOwnershipMismatch)
	})

	t.Run("已使用的券", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(t, o, 1, "300.00", 1)
		grant := &CouponGrant{ID: 11, Username: "alice", Amount: dec("30.00"), MinSpend: dec("100.00"), Status: GrantUsed}
		assert.ErrorIs(t, o.Price(policy, grant), ErrCouponAlreadyUsed)
	})

	t.Run("未达门槛", func(t *testing.T) {
		o := newTestOrder(t)
		addLine(t, o, 1, "99.00", 1)
		grant := &CouponGrant{ID: 12, Username: "alice", Amount: dec("30.00"), MinSpend: dec("100.00"), Status: GrantUnused}
		assert.ErrorIs(t, o.Price(policy, grant), ErrCouponThresholdNotMet)
	})
}

func TestRedeemableCheckOrder(t *testing.T) {
	// 归属错误优先于状态错误，状态错误优先于门槛错误
	grant := &CouponGrant{ID: 1, Username: "bob", Amount: dec("30.00"), MinSpend: dec("500.00"), Status: GrantUsed}
	assert.ErrorIs(t, grant.Redeemable("alice", dec("10.00")), ErrCouponOwnershipMismatch)

	grant.Username = "alice"
	assert.ErrorIs(t, grant.Redeemable("alice", dec("10.00")), ErrCouponAlreadyUsed)

	grant.Status = GrantUnused
	assert.ErrorIs(t, grant.Redeemable("alice", dec("10.00")), ErrCouponThresholdNotMet)

	assert.NoError(t, grant.Redeemable("alice", dec("500.00")))
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusUnpaid, StatusPaid, true},
		{StatusUnpaid, StatusCancelled, true},
		{StatusUnpaid, StatusShipped, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, false},
		{StatusShipped, StatusDelivered, true},
		{StatusDelivered, StatusRefundPending, true},
		{StatusRefundPending, StatusRefundSuccess, true},
		{StatusRefundPending, StatusDelivered, true},
		{StatusRefundSuccess, StatusDelivered, false},
		{StatusCancelled, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, StatusRefundSuccess.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusDelivered.IsTerminal())
}

func TestOrderLifecycle(t *testing.T) {
	o := newTestOrder(t)
	addLine(t, o, 1, "300.00", 1)

	require.NoError(t, o.Pay())
	assert.Equal(t, StatusPaid, o.Status)
	// 重复支付被状态机拒绝
	assert.ErrorIs(t, o.Pay(), ErrInvalidTransition)

	assert.ErrorIs(t, o.Cancel(), ErrInvalidTransition)

	require.NoError(t, o.Ship())
	require.NoError(t, o.Deliver())
	require.NoError(t, o.RequestRefund(time.Now(), 10*24*time.Hour))
	assert.Equal(t, StatusRefundPending, o.Status)

	require.NoError(t, o.RejectRefund())
	assert.Equal(t, StatusDelivered, o.Status)

	require.NoError(t, o.RequestRefund(time.Now(), 10*24*time.Hour))
	require.NoError(t, o.ApproveRefund())
	assert.Equal(t, StatusRefundSuccess, o.Status)
	assert.ErrorIs(t, o.RequestRefund(time.Now(), 10*24*time.Hour), ErrInvalidTransition)
}

func TestCancelOnlyUnpaid(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Cancel())
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestRefundWindow(t *testing.T) {
	window := 10 * 24 * time.Hour

	o := newTestOrder(t)
	o.Status = StatusDelivered
	o.CreatedAt = time.Now().Add(-9 * 24 * time.Hour)
	assert.NoError(t, o.RequestRefund(time.Now(), window))

	o = newTestOrder(t)
	o.Status = StatusDelivered
	o.CreatedAt = time.Now().Add(-11 * 24 * time.Hour)
	assert.ErrorIs(t, o.RequestRefund(time.Now(), window), ErrRefundWindowExpired)
	assert.Equal(t, StatusDelivered, o.Status)

	// window 为 0 表示不做时限校验
	assert.NoError(t, o.RequestRefund(time.Now(), 0))
}

func TestFeedback(t *testing.T) {
	fb := NewCustomerFeedback(1, "alice", "商品有破损")
	assert.Equal(t, RoleCustomer, fb.Role)
	assert.Equal(t, int64(1), fb.OrderID)
	assert.False(t, fb.CreatedAt.IsZero())

	afb := NewAdminFeedback(1, "admin", "审核通过，已完成退款处理。")
	assert.Equal(t, RoleAdmin, afb.Role)
}
