package infrastructure

import "yuxian/internal/service/promotion/domain"

func toDomainCoupon(m *CouponModel) *domain.Coupon {
	return &domain.Coupon{
		ID:            m.ID,
		Name:          m.Name,
		Amount:        m.Amount,
		MinSpend:      m.MinSpend,
		TotalCount:    m.TotalCount,
		ReceivedCount: m.ReceivedCount,
		ValidUntil:    m.ValidUntil,
		Status:        domain.CouponStatus(m.Status),
	}
}

func toDomainGrant(m *UserCouponModel) *domain.Grant {
	return &domain.Grant{
		ID:         m.ID,
		Username:   m.Username,
		CouponID:   m.CouponID,
		Name:       m.Name,
		Amount:     m.Amount,
		MinSpend:   m.MinSpend,
		Status:     domain.GrantStatus(m.Status),
		ReceivedAt: m.ReceivedAt,
	}
}

func toGrantModel(g *domain.Grant) *UserCouponModel {
	return &UserCouponModel{
		ID:         g.ID,
		Username:   g.Username,
		CouponID:   g.CouponID,
		Name:       g.Name,
		Amount:     g.Amount,
		MinSpend:   g.MinSpend,
		Status:     string(g.Status),
		ReceivedAt: g.ReceivedAt,
	}
}
