package application

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"yuxian/internal/pkg/logger"
	"yuxian/internal/pkg/metrics"
	"yuxian/internal/service/order/domain"
	"yuxian/internal/service/order/port"
)

// OrderApplicationService 编排订单生命周期：创建、支付、售后申请与审核。
// 服务自身不持有任何进程内锁，互斥完全下沉到存储层的事务与条件更新。
type OrderApplicationService struct {
	tx       port.TxManager
	notifier port.NotificationProducer
	tracer   trace.Tracer

	pricing      domain.PricingPolicy
	refundWindow time.Duration
}

// NewOrderApplicationService 创建订单应用服务。
func NewOrderApplicationService(tx port.TxManager, notifier port.NotificationProducer, tracer trace.Tracer, pricing domain.PricingPolicy, refundWindow time.Duration) *OrderApplicationService {
	return &OrderApplicationService{
		tx:           tx,
		notifier:     notifier,
		tracer:       tracer,
		pricing:      pricing,
		refundWindow: refundWindow,
	}
}

// CreateOrder 把购物车转化为一笔 UNPAID 订单。
//
// 所有行项目的库存扣减、优惠券核销和订单写入在同一个事务内完成：
// 任何一行库存不足或任何一步校验失败，整个事务回滚，不留下部分扣减。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.username", req.Username),
		attribute.Int("order.lines", len(req.Lines)),
	)

	// 入参校验在任何存储写入之前完成
	if len(req.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	var order *domain.Order
	err := s.tx.Transact(ctx, func(r port.Repos) error {
		var err error
		order, err = domain.NewOrder(req.Username, domain.Address{
			Contact: req.Address.Contact,
			Phone:   req.Address.Phone,
			Detail:  req.Address.Detail,
		})
		if err != nil {
			return err
		}

		for _, line := range req.Lines {
			product, err := r.Inventory.GetProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			// 条件扣减；并发争抢最后一件时恰好一个请求在这里成功
			if err := r.Inventory.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
				return errors.Wrapf(err, "product %q", product.Name)
			}
			if err := order.AddLine(product, line.Quantity); err != nil {
				return err
			}
		}

		var grant *domain.CouponGrant
		if req.CouponGrantID != nil {
			grant, err = r.Coupons.LoadGrant(ctx, *req.CouponGrantID)
			if err != nil {
				return err
			}
		}

		if err := order.Price(s.pricing, grant); err != nil {
			return err
		}

		if grant != nil {
			// 校验全部通过后才落核销标记，仍在同一事务内
			if err := r.Coupons.MarkUsed(ctx, grant.ID); err != nil {
				return err
			}
		}

		return r.Orders.Save(ctx, order)
	})
	if err != nil {
		s.recordConflict(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	logger.Ctx(ctx).Info().
		Int64("order_id", order.ID).
		Str("order_no", order.OrderNo).
		Str("total", order.TotalPrice.StringFixed(2)).
		Msg("order created")

	return &CreateOrderResponse{
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		TotalPrice: order.TotalPrice.StringFixed(2),
	}, nil
}

// PayOrder 确认支付，UNPAID -> PAID。
// 事务提交后向管理端推送 best-effort 通知，推送失败不回滚支付。
func (s *OrderApplicationService) PayOrder(ctx context.Context, orderID int64, username string) error {
	ctx, span := s.tracer.Start(ctx, "order.PayOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	var paid *domain.Order
	err := s.tx.Transact(ctx, func(r port.Repos) error {
		order, err := r.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOwnedBy(username) {
			return domain.ErrNotOrderOwner
		}
		if err := order.Pay(); err != nil {
			return err
		}
		if err := r.Orders.Save(ctx, order); err != nil {
			return err
		}
		paid = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.notifyPaid(ctx, paid)
	return nil
}

// notifyPaid 在支付事务已提交后发送通知；失败只记日志，绝不向调用方冒泡。
func (s *OrderApplicationService) notifyPaid(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	event := &domain.OrderPaidEvent{
		Tag:        domain.EventTagNewOrder,
		OrderID:    order.ID,
		OrderNo:    order.OrderNo,
		Username:   order.Username,
		TotalPrice: order.TotalPrice.StringFixed(2),
	}
	if err := s.notifier.OrderPaid(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Int64("order_id", order.ID).
			Msg("order paid notification failed, dropped")
	}
}

// CancelOrder 取消未支付订单并返还已预占的库存。
func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID int64, username string) error {
	ctx, span := s.tracer.Start(ctx, "order.CancelOrder")
	defer span.End()

	return s.tx.Transact(ctx, func(r port.Repos) error {
		order, err := r.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOwnedBy(username) {
			return domain.ErrNotOrderOwner
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, line := range order.Lines {
			if err := r.Inventory.Release(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return r.Orders.Save(ctx, order)
	})
}

// ShipOrder 管理端发货，PAID -> SHIPPED。
func (s *OrderApplicationService) ShipOrder(ctx context.Context, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "order.ShipOrder")
	defer span.End()
	return s.updateStatus(ctx, orderID, (*domain.Order).Ship)
}

// DeliverOrder 管理端签收送达，SHIPPED -> DELIVERED。
func (s *OrderApplicationService) DeliverOrder(ctx context.Context, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "order.DeliverOrder")
	defer span.End()
	return s.updateStatus(ctx, orderID, (*domain.Order).Deliver)
}

func (s *OrderApplicationService) updateStatus(ctx context.Context, orderID int64, mutate func(*domain.Order) error) error {
	return s.tx.Transact(ctx, func(r port.Repos) error {
		order, err := r.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := mutate(order); err != nil {
			return err
		}
		return r.Orders.Save(ctx, order)
	})
}

// ApplyRefund 用户对已送达订单发起售后申请。
// 申请记录与状态变更在同一事务内落库。
func (s *OrderApplicationService) ApplyRefund(ctx context.Context, orderID int64, req *ApplyRefundRequest) error {
	ctx, span := s.tracer.Start(ctx, "order.ApplyRefund")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	return s.tx.Transact(ctx, func(r port.Repos) error {
		order, err := r.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsOwnedBy(req.Username) {
			return domain.ErrNotOrderOwner
		}
		if err := order.RequestRefund(time.Now(), s.refundWindow); err != nil {
			return err
		}

		content := fmt.Sprintf("申请类型: %s / 原因: %s", req.Type, req.Reason)
		if err := r.Feedback.Append(ctx, domain.NewCustomerFeedback(orderID, req.Username, content)); err != nil {
			return err
		}
		return r.Orders.Save(ctx, order)
	})
}

// AuditRefund 管理员审核售后。
//
// 通过：订单进入退款成功终态，并逐行返还库存（唯一的库存回补路径）。
// 驳回：订单回到已送达状态，记录驳回原因。
// 状态变更、库存返还、审计记录三者同一事务提交；中途失败整体回滚，
// 订单保持 REFUND_PENDING 可重试。REFUND_PENDING 状态守卫使得并发的
// 第二次审核变成失败的空操作，库存至多返还一次。
func (s *OrderApplicationService) AuditRefund(ctx context.Context, orderID int64, req *AuditRefundRequest) error {
	ctx, span := s.tracer.Start(ctx, "order.AuditRefund")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.Bool("refund.approve", req.Approve),
	)

	err := s.tx.Transact(ctx, func(r port.Repos) error {
		order, err := r.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		var content string
		if req.Approve {
			if err := order.ApproveRefund(); err != nil {
				return err
			}
			for _, line := range order.Lines {
				if err := r.Inventory.Release(ctx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
			content = "审核通过，已完成退款处理。"
		} else {
			if err := order.RejectRefund(); err != nil {
				return err
			}
			content = fmt.Sprintf("审核驳回，原因：%s", req.Reason)
		}

		if err := r.Feedback.Append(ctx, domain.NewAdminFeedback(orderID, req.AdminUsername, content)); err != nil {
			return err
		}
		return r.Orders.Save(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	outcome := "rejected"
	if req.Approve {
		outcome = "approved"
	}
	metrics.RefundsAudited.WithLabelValues(outcome).Inc()
	return nil
}

// ListOrders 返回用户的全部订单。
func (s *OrderApplicationService) ListOrders(ctx context.Context, username string) ([]*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrders")
	defer span.End()

	var views []*OrderView
	err := s.tx.Transact(ctx, func(r port.Repos) error {
		orders, err := r.Orders.ListByUsername(ctx, username)
		if err != nil {
			return err
		}
		for _, o := range orders {
			views = append(views, toOrderView(o))
		}
		return nil
	})
	return views, err
}

// ListRefundPending 返回待审核的售后订单。
func (s *OrderApplicationService) ListRefundPending(ctx context.Context) ([]*OrderView, error) {
	ctx, span := s.tracer.Start(ctx, "order.ListRefundPending")
	defer span.End()

	var views []*OrderView
	err := s.tx.Transact(ctx, func(r port.Repos) error {
		orders, err := r.Orders.ListByStatus(ctx, domain.StatusRefundPending)
		if err != nil {
			return err
		}
		for _, o := range orders {
			views = append(views, toOrderView(o))
		}
		return nil
	})
	return views, err
}

// GetRefundFeedback 返回某订单的售后反馈历史，按时间正序。
func (s *OrderApplicationService) GetRefundFeedback(ctx context.Context, orderID int64) ([]*FeedbackView, error) {
	ctx, span := s.tracer.Start(ctx, "order.GetRefundFeedback")
	defer span.End()

	var views []*FeedbackView
	err := s.tx.Transact(ctx, func(r port.Repos) error {
		records, err := r.Feedback.ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, fb := range records {
			views = append(views, toFeedbackView(fb))
		}
		return nil
	})
	return views, err
}

func (s *OrderApplicationService) recordConflict(err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		metrics.StockConflicts.Inc()
	case errors.Is(err, domain.ErrCouponAlreadyUsed),
		errors.Is(err, domain.ErrCouponThresholdNotMet),
		errors.Is(err, domain.ErrCouponOwnershipMismatch):
		metrics.CouponConflicts.Inc()
	}
}
