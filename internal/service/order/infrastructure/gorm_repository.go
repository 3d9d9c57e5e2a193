package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"yuxian/internal/service/order/domain"
	"yuxian/internal/service/order/port"
)

// RepoFactory 由组装层提供，用给定的事务句柄构造一套仓储。
// 优惠券侧的实现位于 promotion 包，通过该工厂在 main 中注入，
// 保证一个事务同时覆盖订单、库存和优惠券三张台账。
type RepoFactory func(tx *gorm.DB) port.Repos

// GormTxManager 以 GORM 事务实现 port.TxManager。
type GormTxManager struct {
	db    *gorm.DB
	build RepoFactory
}

func NewGormTxManager(db *gorm.DB, build RepoFactory) *GormTxManager {
	return &GormTxManager{db: db, build: build}
}

// Transact 在单个数据库事务内执行 fn；fn 报错时整体回滚。
// 驱动层的瞬态故障在这里统一被标记为可重试。
func (m *GormTxManager) Transact(ctx context.Context, fn func(r port.Repos) error) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(m.build(tx))
	})
	return classifyStorageErr(err)
}

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 创建订单（连同行项目），或回写已有订单的可变字段。
// 行项目和金额是下单时刻的快照，更新路径上只允许状态类字段变化。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == 0 {
		model := toOrderModel(order)
		if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
			return errors.Wrap(err, "create order")
		}
		order.ID = model.ID
		for i := range model.Items {
			order.Lines[i].ID = model.Items[i].ID
		}
		return nil
	}

	err := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":     string(order.Status),
			"updated_at": order.UpdatedAt,
		}).Error
	return errors.Wrapf(err, "update order %d", order.ID)
}

// FindByID 加载订单聚合，含全部行项目。
func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrapf(err, "find order %d", id)
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) ListByUsername(ctx context.Context, username string) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("username = ?", username).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders by username")
	}
	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toDomainOrder(&models[i]))
	}
	return orders, nil
}

func (r *GormOrderRepository) ListByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	var models []OrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders by status")
	}
	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toDomainOrder(&models[i]))
	}
	return orders, nil
}

// GormInventoryService 是 port.InventoryService 的 GORM 实现。
// 扣减是一条带库存下界条件的 UPDATE，单次往返完成判定与变更，
// 不存在先读后写的窗口。
type GormInventoryService struct {
	db *gorm.DB
}

func NewGormInventoryService(db *gorm.DB) *GormInventoryService {
	return &GormInventoryService{db: db}
}

func (s *GormInventoryService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	var model ProductModel
	err := s.db.WithContext(ctx).First(&model, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "find product %d", productID)
	}
	return toDomainProduct(&model), nil
}

// Reserve 执行 UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?。
// 没有命中任何行即库存不足。
func (s *GormInventoryService) Reserve(ctx context.Context, productID int64, quantity int) error {
	res := s.db.WithContext(ctx).Model(&ProductModel{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "reserve stock for product %d", productID)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// Release 无条件返还库存。
func (s *GormInventoryService) Release(ctx context.Context, productID int64, quantity int) error {
	res := s.db.WithContext(ctx).Model(&ProductModel{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return errors.Wrapf(res.Error, "release stock for product %d", productID)
	}
	return nil
}

// GormFeedbackRepository 是 domain.RefundFeedbackRepository 的 GORM 实现。
type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Append(ctx context.Context, fb *domain.RefundFeedback) error {
	model := &RefundFeedbackModel{
		OrderID:   fb.OrderID,
		Role:      string(fb.Role),
		Content:   fb.Content,
		Operator:  fb.Operator,
		CreatedAt: fb.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "append refund feedback")
	}
	fb.ID = model.ID
	return nil
}

func (r *GormFeedbackRepository) ListByOrderID(ctx context.Context, orderID int64) ([]*domain.RefundFeedback, error) {
	var models []RefundFeedbackModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list refund feedback")
	}
	records := make([]*domain.RefundFeedback, 0, len(models))
	for i := range models {
		records = append(records, toDomainFeedback(&models[i]))
	}
	return records, nil
}
