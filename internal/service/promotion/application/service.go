package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"yuxian/internal/pkg/logger"
	"yuxian/internal/service/promotion/domain"
)

// PromotionService 提供优惠券的发放侧用例：市场列表、领取、积分兑换。
// 核销发生在订单事务内，不经过本服务。
type PromotionService struct {
	tx     domain.TxManager
	tracer trace.Tracer
}

// NewPromotionService 创建优惠服务实例。
func NewPromotionService(tx domain.TxManager, tracer trace.Tracer) *PromotionService {
	return &PromotionService{tx: tx, tracer: tracer}
}

// MarketList 返回上架中的活动及当前用户的领取情况。
func (s *PromotionService) MarketList(ctx context.Context, username string) ([]*MarketCouponView, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.MarketList")
	defer span.End()

	var views []*MarketCouponView
	err := s.tx.Transact(ctx, func(r domain.Repos) error {
		coupons, err := r.Coupons.ListActive(ctx)
		if err != nil {
			return err
		}
		for _, c := range coupons {
			received, err := r.Grants.HasReceived(ctx, username, c.ID)
			if err != nil {
				return err
			}
			views = append(views, &MarketCouponView{
				ID:          c.ID,
				Name:        c.Name,
				Amount:      c.Amount.StringFixed(2),
				MinSpend:    c.MinSpend.StringFixed(2),
				ValidUntil:  c.ValidUntil.Format("2006-01-02"),
				Percent:     c.ClaimPercent(),
				HasReceived: received,
			})
		}
		return nil
	})
	return views, err
}

// MyCoupons 返回用户持有的全部优惠券。
func (s *PromotionService) MyCoupons(ctx context.Context, username string) ([]*GrantView, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.MyCoupons")
	defer span.End()

	var views []*GrantView
	err := s.tx.Transact(ctx, func(r domain.Repos) error {
		grants, err := r.Grants.ListByUsername(ctx, username)
		if err != nil {
			return err
		}
		for _, g := range grants {
			views = append(views, toGrantView(g))
		}
		return nil
	})
	return views, err
}

// Receive 领取一张限量优惠券。
//
// 名额由条件自增裁决：并发抢最后一个名额时恰好一个请求成功，
// 其余得到 ErrCouponSoldOut；重复领取被 (username, coupon_id)
// 唯一索引拦下。名额扣减和发券在同一事务内。
func (s *PromotionService) Receive(ctx context.Context, couponID int64, username string) (*GrantView, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.Receive")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("coupon.id", couponID),
		attribute.String("user.name", username),
	)

	var grant *domain.Grant
	err := s.tx.Transact(ctx, func(r domain.Repos) error {
		coupon, err := r.Coupons.FindByID(ctx, couponID)
		if err != nil {
			return err
		}
		if coupon.Status != domain.CouponActive {
			return domain.ErrCouponInactive
		}
		if received, err := r.Grants.HasReceived(ctx, username, couponID); err != nil {
			return err
		} else if received {
			return domain.ErrCouponAlreadyReceived
		}

		if err := r.Coupons.IncrementReceived(ctx, couponID); err != nil {
			return err
		}
		grant = domain.NewGrant(coupon, username)
		return r.Grants.Create(ctx, grant)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Int64("coupon_id", couponID).
		Str("username", username).
		Msg("coupon received")
	return toGrantView(grant), nil
}

// Exchange 用积分兑换一张无模板的优惠券，扣减积分和发券同一事务。
func (s *PromotionService) Exchange(ctx context.Context, req *ExchangeRequest) (*ExchangeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.Exchange")
	defer span.End()

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var remaining int
	var grant *domain.Grant
	err = s.tx.Transact(ctx, func(r domain.Repos) error {
		var err error
		remaining, err = r.Users.DeductPoints(ctx, req.Username, req.Cost)
		if err != nil {
			return err
		}
		grant = domain.NewExchangedGrant(req.Username, req.Name, amount)
		return r.Grants.Create(ctx, grant)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Str("username", req.Username).
		Int("cost", req.Cost).
		Time("received_at", time.Now()).
		Msg("coupon exchanged with points")
	return &ExchangeResponse{Success: true, Points: remaining}, nil
}
