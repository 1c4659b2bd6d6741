package models

import (
	"github.com/shopspring/decimal"
)

// ProductOrder 单个商品的订购量；adjustment 是整件校正阶段由管理员录入的带符号修正
type ProductOrder struct {
	Wanted     int `yaml:"wanted" json:"wanted"`
	Adjustment int `yaml:"adjustment,omitempty" json:"adjustment,omitempty"`
}

// Quantity 最终数量 = 期望数量 + 校正
func (po ProductOrder) Quantity() int {
	return po.Wanted + po.Adjustment
}

// Order 一个团体在一次配送中的订单
type Order struct {
	Products    map[string]ProductOrder `yaml:"products" json:"products"`
	PhoneNumber string                  `yaml:"phone_number,omitempty" json:"phone_number,omitempty"`
	Paid        bool                    `yaml:"paid,omitempty" json:"paid,omitempty"`
}

// NewOrder 创建空订单
func NewOrder() Order {
	return Order{Products: map[string]ProductOrder{}}
}

// Get 读取某个商品的订购量；未订购返回零值
func (o Order) Get(ref string) ProductOrder {
	if o.Products == nil {
		return ProductOrder{}
	}
	return o.Products[ref]
}

// Set 写入某个商品的订购量
func (o *Order) Set(ref string, po ProductOrder) {
	if o.Products == nil {
		o.Products = map[string]ProductOrder{}
	}
	o.Products[ref] = po
}

// IsEmpty 订单是否为空；空订单按约定直接从配送中删除而不是落盘
func (o Order) IsEmpty() bool {
	return len(o.Products) == 0
}

// HasAdjustments 是否已有整件校正录入
func (o Order) HasAdjustments() bool {
	for _, po := range o.Products {
		if po.Adjustment != 0 {
			return true
		}
	}
	return false
}

// productsTotal 按给定商品集计算货款（不含运费、全精度）。
// 商品已从目录移除或断货时按 0 计价。
func (o Order) productsTotal(products []Product) decimal.Decimal {
	byRef := make(map[string]Product, len(products))
	for _, p := range products {
		byRef[p.Ref] = p
	}
	total := decimal.Zero
	for ref, po := range o.Products {
		product, ok := byRef[ref]
		if !ok || product.InRupture() {
			continue
		}
		line := product.Price.Decimal.Mul(decimal.NewFromInt(int64(po.Quantity())))
		total = total.Add(line)
	}
	return total
}

// Total 订单金额：货款加上按比例分摊的运费，舍入到 2 位小数。
// products 限定计入的商品集（可以是整个目录，也可以只是某供应商的商品）。
func (o Order) Total(products []Product, delivery *Delivery, buyerID string, includeShipping bool) Money {
	total := o.productsTotal(products)
	if includeShipping {
		total = total.Add(o.computeShipping(products, delivery, buyerID))
	}
	return Money{Decimal: total}.Rounded()
}

// computeShipping 汇总该订单覆盖的所有供应商的运费分摊
func (o Order) computeShipping(products []Product, delivery *Delivery, buyerID string) decimal.Decimal {
	producers := map[string]struct{}{}
	for _, p := range products {
		producers[p.Producer] = struct{}{}
	}
	total := decimal.Zero
	for producer := range producers {
		total = total.Add(delivery.ShippingFor(buyerID, producer))
	}
	return total
}
