package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	orderdomain "yuxian/internal/service/order/domain"
)

// GormCouponRedemption 以 user_coupons 表实现订单侧的优惠券核销端口
// (order/port.CouponService)。订单事务通过同一个事务句柄构造本适配器，
// 因此核销与订单写入原子地一起提交或回滚。
type GormCouponRedemption struct {
	db *gorm.DB
}

func NewGormCouponRedemption(db *gorm.DB) *GormCouponRedemption {
	return &GormCouponRedemption{db: db}
}

// LoadGrant 把用户优惠券映射为订单域的核销视图。
func (s *GormCouponRedemption) LoadGrant(ctx context.Context, grantID int64) (*orderdomain.CouponGrant, error) {
	var model UserCouponModel
	err := s.db.WithContext(ctx).First(&model, grantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderdomain.ErrCouponNotFound
		}
		return nil, errors.Wrapf(err, "load coupon grant %d", grantID)
	}
	return &orderdomain.CouponGrant{
		ID:         model.ID,
		Username:   model.Username,
		Name:       model.Name,
		Amount:     model.Amount,
		MinSpend:   model.MinSpend,
		Status:     orderdomain.GrantStatus(model.Status),
		ReceivedAt: model.ReceivedAt,
	}, nil
}

// MarkUsed 条件更新 UNUSED -> USED。并发核销同一张券时恰好一个请求命中，
// 其余得到已使用错误。
func (s *GormCouponRedemption) MarkUsed(ctx context.Context, grantID int64) error {
	res := s.db.WithContext(ctx).Model(&UserCouponModel{}).
		Where("id = ? AND status = ?", grantID, string(orderdomain.GrantUnused)).
		UpdateColumn("status", string(orderdomain.GrantUsed))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "mark coupon grant %d used", grantID)
	}
	if res.RowsAffected == 0 {
		return orderdomain.ErrCouponAlreadyUsed
	}
	return nil
}
