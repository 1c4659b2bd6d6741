package models

import (
	"strconv"
	"time"
)

// Product 团购商品；ref 在一次配送内唯一
type Product struct {
	Ref         string    `yaml:"ref" json:"ref"`
	Name        string    `yaml:"name" json:"name"`
	Price       Money     `yaml:"price" json:"price"`
	Unit        string    `yaml:"unit,omitempty" json:"unit,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Packing     int       `yaml:"packing,omitempty" json:"packing,omitempty"` // 整件规格；0 表示不按整件订
	Producer    string    `yaml:"producer,omitempty" json:"producer,omitempty"`
	Rupture     string    `yaml:"rupture,omitempty" json:"rupture,omitempty"` // 缺货说明；非空表示断货
	LastUpdate  time.Time `yaml:"last_update" json:"last_update"`
}

// InRupture 是否断货；断货商品计价和汇总时按 0 处理
func (p Product) InRupture() bool {
	return p.Rupture != ""
}

// HasPacking 是否受整件规格约束
func (p Product) HasPacking() bool {
	return p.Packing > 0
}

// Validate 校验字段取值
func (p Product) Validate() error {
	if p.Ref == "" {
		return &FieldError{Field: "ref", Value: p.Ref, Err: ErrInvalidRef}
	}
	if p.Price.IsNegative() {
		return &FieldError{Field: "price", Value: p.Price.String(), Err: ErrInvalidPrice}
	}
	if p.Packing < 0 {
		return &FieldError{Field: "packing", Value: strconv.Itoa(p.Packing), Err: ErrInvalidPacking}
	}
	return nil
}

// Producer 供应商（生产者）
type Producer struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Referent      string `yaml:"referent,omitempty" json:"referent,omitempty"` // 对接人邮箱，代收货款
	ReferentTel   string `yaml:"referent_tel,omitempty" json:"referent_tel,omitempty"`
	ReferentName  string `yaml:"referent_name,omitempty" json:"referent_name,omitempty"`
	Contact       string `yaml:"contact,omitempty" json:"contact,omitempty"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	PracticalInfo string `yaml:"practical_info,omitempty" json:"practical_info,omitempty"`
}

// HasActiveProducts 该供应商是否还有在售（未断货）商品
func (p Producer) HasActiveProducts(delivery *Delivery) bool {
	for _, product := range delivery.GetProductsBy(p.ID) {
		if !product.InRupture() {
			return true
		}
	}
	return false
}

// HasRuptureProducts 该供应商是否存在断货商品
func (p Producer) HasRuptureProducts(delivery *Delivery) bool {
	for _, product := range delivery.GetProductsBy(p.ID) {
		if product.InRupture() {
			return true
		}
	}
	return false
}

// NeedsPriceUpdate 该供应商的报价是否过期
func (p Producer) NeedsPriceUpdate(delivery *Delivery) bool {
	return delivery.productsNeedPriceUpdate(delivery.GetProductsBy(p.ID))
}
