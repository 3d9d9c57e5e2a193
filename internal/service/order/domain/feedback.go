package domain

import "time"

// AuthorRole 标识售后反馈的作者身份。
type AuthorRole string

const (
	RoleCustomer AuthorRole = "customer"
	RoleAdmin    AuthorRole = "admin"
)

// RefundFeedback 是售后流程的审计记录，只追加、不修改、不删除。
// 订单的工作流状态以 Order.Status 为准，反馈记录只作留痕。
type RefundFeedback struct {
	ID        int64
	OrderID   int64
	Role      AuthorRole
	Content   string
	Operator  string
	CreatedAt time.Time
}

// NewCustomerFeedback 生成一条用户发起的售后申请记录。
func NewCustomerFeedback(orderID int64, operator, content string) *RefundFeedback {
	return &RefundFeedback{
		OrderID:   orderID,
		Role:      RoleCustomer,
		Content:   content,
		Operator:  operator,
		CreatedAt: time.Now(),
	}
}

// NewAdminFeedback 生成一条管理员审核记录。
func NewAdminFeedback(orderID int64, operator, content string) *RefundFeedback {
	return &RefundFeedback{
		OrderID:   orderID,
		Role:      RoleAdmin,
		Content:   content,
		Operator:  operator,
		CreatedAt: time.Now(),
	}
}
