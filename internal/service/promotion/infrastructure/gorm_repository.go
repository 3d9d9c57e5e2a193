package infrastructure

import (
	"context"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"yuxian/internal/service/promotion/domain"
)

// MySQL 错误码：唯一键冲突。
const mysqlErrDuplicateEntry = 1062

// GormTxManager 以 GORM 事务实现 domain.TxManager。
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) Transact(ctx context.Context, fn func(r domain.Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(domain.Repos{
			Coupons: NewGormCouponRepository(tx),
			Grants:  NewGormGrantRepository(tx),
			Users:   NewGormUserRepository(tx),
		})
	})
}

// GormCouponRepository 是 domain.CouponRepository 的 GORM 实现。
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) FindByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, errors.Wrapf(err, "find coupon %d", id)
	}
	return toDomainCoupon(&model), nil
}

func (r *GormCouponRepository) ListActive(ctx context.Context) ([]*domain.Coupon, error) {
	var models []CouponModel
	err := r.db.WithContext(ctx).
		Where("status = ?", int(domain.CouponActive)).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list active coupons")
	}
	coupons := make([]*domain.Coupon, 0, len(models))
	for i := range models {
		coupons = append(coupons, toDomainCoupon(&models[i]))
	}
	return coupons, nil
}

// IncrementReceived 执行
// UPDATE coupons SET received_count = received_count + 1
// WHERE id = ? AND received_count < total_count。
// 没有命中任何行即名额已抢光。
func (r *GormCouponRepository) IncrementReceived(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&CouponModel{}).
		Where("id = ? AND received_count < total_count", id).
		UpdateColumn("received_count", gorm.Expr("received_count + 1"))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "increment received count for coupon %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.ErrCouponSoldOut
	}
	return nil
}

// GormGrantRepository 是 domain.GrantRepository 的 GORM 实现。
type GormGrantRepository struct {
	db *gorm.DB
}

func NewGormGrantRepository(db *gorm.DB) *GormGrantRepository {
	return &GormGrantRepository{db: db}
}

func (r *GormGrantRepository) Create(ctx context.Context, grant *domain.Grant) error {
	model := toGrantModel(grant)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		var myErr *mysqldrv.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
			return domain.ErrCouponAlreadyReceived
		}
		return errors.Wrap(err, "create coupon grant")
	}
	grant.ID = model.ID
	return nil
}

func (r *GormGrantRepository) ListByUsername(ctx context.Context, username string) ([]*domain.Grant, error) {
	var models []UserCouponModel
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		Order("received_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list grants by username")
	}
	grants := make([]*domain.Grant, 0, len(models))
	for i := range models {
		grants = append(grants, toDomainGrant(&models[i]))
	}
	return grants, nil
}

func (r *GormGrantRepository) HasReceived(ctx context.Context, username string, couponID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserCouponModel{}).
		Where("username = ? AND coupon_id = ?", username, couponID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count grants")
	}
	return count > 0, nil
}

// GormUserRepository 是 domain.UserRepository 的 GORM 实现。
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// DeductPoints 条件扣减：UPDATE users SET points = points - ?
// WHERE username = ? AND points >= ?。
func (r *GormUserRepository) DeductPoints(ctx context.Context, username string, cost int) (int, error) {
	res := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("username = ? AND points >= ?", username, cost).
		UpdateColumn("points", gorm.Expr("points - ?", cost))
	if res.Error != nil {
		return 0, errors.Wrapf(res.Error, "deduct points for user %s", username)
	}
	if res.RowsAffected == 0 {
		// 区分用户不存在和余额不足
		var count int64
		if err := r.db.WithContext(ctx).Model(&UserModel{}).
			Where("username = ?", username).Count(&count).Error; err != nil {
			return 0, errors.Wrap(err, "check user exists")
		}
		if count == 0 {
			return 0, domain.ErrUserNotFound
		}
		return 0, domain.ErrInsufficientPoints
	}

	var model UserModel
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).First(&model).Error; err != nil {
		return 0, errors.Wrap(err, "reload user points")
	}
	return model.Points, nil
}
