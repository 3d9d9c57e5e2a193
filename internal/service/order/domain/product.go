package domain

import "github.com/shopspring/decimal"

// Product 是商品在下单路径上的只读视图。
// 库存的扣减/返还不经过该结构体，必须走存储层的条件更新。
type Product struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
	Stock     int
}
