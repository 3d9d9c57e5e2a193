package infrastructure

import (
	"yuxian/internal/service/order/domain"
)

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:        m.ID,
		Name:      m.Name,
		UnitPrice: m.Price,
		ImageURL:  m.ImageURL,
		Stock:     m.Stock,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:              m.ID,
		OrderNo:         m.OrderNo,
		Username:        m.Username,
		ReceiverName:    m.ReceiverName,
		ReceiverPhone:   m.ReceiverPhone,
		ReceiverAddress: m.ReceiverAddress,
		Subtotal:        m.Subtotal,
		ShippingFee:     m.ShippingFee,
		Discount:        m.Discount,
		TotalPrice:      m.TotalPrice,
		CouponGrantID:   m.CouponGrantID,
		Status:          domain.Status(m.Status),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, item := range m.Items {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ImageURL:    item.ImageURL,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}
	return order
}

func toOrderModel(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		Username:        o.Username,
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Discount:        o.Discount,
		TotalPrice:      o.TotalPrice,
		CouponGrantID:   o.CouponGrantID,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, line := range o.Lines {
		m.Items = append(m.Items, OrderItemModel{
			ID:          line.ID,
			OrderID:     o.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ImageURL:    line.ImageURL,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return m
}

func toDomainFeedback(m *RefundFeedbackModel) *domain.RefundFeedback {
	return &domain.RefundFeedback{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Role:      domain.AuthorRole(m.Role),
		Content:   m.Content,
		Operator:  m.Operator,
		CreatedAt: m.CreatedAt,
	}
}
