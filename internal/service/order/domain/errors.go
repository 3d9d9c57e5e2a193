package domain

import "github.com/pkg/errors"

// 业务规则错误。它们在事务内部被检出并导致整个事务回滚，
// 接口层通过 errors.Is 将其映射为对应的 HTTP 状态码。
var (
	ErrEmptyOrder        = errors.New("order: line items must not be empty")
	ErrMissingAddress    = errors.New("order: receiver address is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrOrderNotFound     = errors.New("order: not found")
	ErrNotOrderOwner     = errors.New("order: not owned by requester")
	ErrInvalidTransition = errors.New("order: invalid status transition")

	ErrProductNotFound   = errors.New("inventory: product not found")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")

	ErrCouponNotFound          = errors.New("coupon: grant not found")
	ErrCouponOwnershipMismatch = errors.New("coupon: grant not owned by requester")
	ErrCouponAlreadyUsed       = errors.New("coupon: grant already consumed")
	ErrCouponThresholdNotMet   = errors.New("coupon: minimum spend not met")

	ErrRefundWindowExpired = errors.New("order: refund window expired")

	// ErrStorageTransient 标记可安全整体重试的存储层瞬态故障
	// （锁等待超时、死锁、连接中断等），回滚是原子的，不会留下半份状态。
	ErrStorageTransient = errors.New("storage: transient failure, retry the whole operation")
)
