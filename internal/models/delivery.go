package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ArchivePrefix 归档记录的 id 前缀；归档只改变身份前缀，不改数据
const ArchivePrefix = "archive/"

// 报价有效期：from_date 之前 60 天内必须更新过价格
const priceMaxAgeDays = 60

// DeliveryStatus 配送状态；永远按当前时间和数据实时推导，不落盘
type DeliveryStatus int

const (
	// StatusArchived 已归档（终态）
	StatusArchived DeliveryStatus = iota
	// StatusOver 已被后续配送接替（终态）
	StatusOver
	// StatusEmpty 商品目录为空
	StatusEmpty
	// StatusNeedPriceUpdate 存在报价过期的商品
	StatusNeedPriceUpdate
	// StatusOpen 订购期内，任何人可下单、改单
	StatusOpen
	// StatusAdjustment 整件校正期，只有管理员能录入 adjustment
	StatusAdjustment
	// StatusWaitingProducts 订购已截止，等待到货
	StatusWaitingProducts
	// StatusClosed 配送已结束
	StatusClosed
)

// String 返回状态名
func (s DeliveryStatus) String() string {
	switch s {
	case StatusArchived:
		return "archived"
	case StatusOver:
		return "over"
	case StatusEmpty:
		return "empty"
	case StatusNeedPriceUpdate:
		return "need_price_update"
	case StatusOpen:
		return "open"
	case StatusAdjustment:
		return "adjustment"
	case StatusWaitingProducts:
		return "waiting_products"
	default:
		return "closed"
	}
}

// Delivery 一次团购配送：目录、订单、运费与生命周期的聚合根。
// 所有商品、供应商、订单、运费表都归本配送独占，跨配送复制必须深拷贝。
type Delivery struct {
	// ID 首次落盘时由存储层补发，调用方不得自行指定
	ID string `yaml:"-" json:"id"`

	Name         string              `yaml:"name" json:"name"`
	Contact      string              `yaml:"contact" json:"contact"`
	ContactPhone string              `yaml:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Instructions string              `yaml:"instructions,omitempty" json:"instructions,omitempty"`
	Where        string              `yaml:"where,omitempty" json:"where,omitempty"`
	FromDate     time.Time           `yaml:"from_date" json:"from_date"`
	ToDate       time.Time           `yaml:"to_date" json:"to_date"`
	OrderBefore  time.Time           `yaml:"order_before" json:"order_before"`
	Products     []Product           `yaml:"products" json:"products"`
	Producers    map[string]Producer `yaml:"producers" json:"producers"`
	Orders       map[string]Order    `yaml:"orders" json:"orders"`
	Shipping     map[string]Money    `yaml:"shipping,omitempty" json:"shipping,omitempty"` // 每个供应商一笔固定运费，由买家按货款比例分摊
	Over         bool                `yaml:"over,omitempty" json:"over,omitempty"`
}

// Archived 身份是否带归档标记
func (d *Delivery) Archived() bool {
	return strings.HasPrefix(d.ID, ArchivePrefix)
}

// Status 当前状态
func (d *Delivery) Status() DeliveryStatus {
	return d.StatusAt(time.Now())
}

// StatusAt 在给定时刻推导状态；自上而下第一个命中生效
func (d *Delivery) StatusAt(now time.Time) DeliveryStatus {
	switch {
	case d.Archived():
		return StatusArchived
	case d.Over:
		return StatusOver
	case len(d.Products) == 0:
		return StatusEmpty
	case d.productsNeedPriceUpdate(d.Products):
		return StatusNeedPriceUpdate
	case d.isOpenAt(now):
		return StatusOpen
	case d.NeedsAdjustment():
		return StatusAdjustment
	case d.isWaitingProductsAt(now):
		return StatusWaitingProducts
	default:
		return StatusClosed
	}
}

func (d *Delivery) isOpenAt(now time.Time) bool {
	return !dateOnly(now).After(dateOnly(d.OrderBefore))
}

func (d *Delivery) isWaitingProductsAt(now time.Time) bool {
	today := dateOnly(now)
	return !today.Before(dateOnly(d.OrderBefore)) && !today.After(dateOnly(d.FromDate))
}

// IsForeseen 配送日是否还没过
func (d *Delivery) IsForeseen() bool {
	return !dateOnly(time.Now()).After(dateOnly(d.FromDate))
}

// IsPassed 配送日是否已过
func (d *Delivery) IsPassed() bool {
	return !d.IsForeseen()
}

// CanGenerateReports 订购截止且无待校正时才能出报表
func (d *Delivery) CanGenerateReports() bool {
	status := d.Status()
	return status != StatusOpen && status != StatusAdjustment && status != StatusEmpty
}

// productsNeedPriceUpdate 给定商品集中是否有报价过期的；只看仍在目录中的供应商
func (d *Delivery) productsNeedPriceUpdate(products []Product) bool {
	maxAge := dateOnly(d.FromDate).AddDate(0, 0, -priceMaxAgeDays)
	for _, product := range products {
		if _, ok := d.Producers[product.Producer]; !ok {
			continue
		}
		if dateOnly(product.LastUpdate).Before(maxAge) {
			return true
		}
	}
	return false
}

// DeliveryDates 由配送日期推导的里程碑
type DeliveryDates struct {
	CreationDate        time.Time `json:"creation_date"`
	PriceUpdateStart    time.Time `json:"price_update_start"`
	PriceUpdateDeadline time.Time `json:"price_update_deadline"`
	OrderBefore         time.Time `json:"order_before"`
	AdjustmentDeadline  time.Time `json:"adjustment_deadline"`
	DeliveryDate        time.Time `json:"delivery_date"`
}

// Dates 计算各里程碑日期
func (d *Delivery) Dates() DeliveryDates {
	return DeliveryDates{
		CreationDate:        d.OrderBefore.AddDate(0, 0, -28),
		PriceUpdateStart:    d.OrderBefore.AddDate(0, 0, -28),
		PriceUpdateDeadline: d.OrderBefore.AddDate(0, 0, -14),
		OrderBefore:         d.OrderBefore,
		AdjustmentDeadline:  d.OrderBefore.AddDate(0, 0, 4),
		DeliveryDate:        dateOnly(d.FromDate),
	}
}

// HasProducts 目录是否非空
func (d *Delivery) HasProducts() bool {
	return len(d.Products) > 0
}

// HasPacking 目录里是否存在整件约束的商品
func (d *Delivery) HasPacking() bool {
	for _, p := range d.Products {
		if p.HasPacking() {
			return true
		}
	}
	return false
}

// NeedsAdjustment 是否存在汇总量未对齐整件的商品
func (d *Delivery) NeedsAdjustment() bool {
	if !d.HasPacking() {
		return false
	}
	for _, p := range d.Products {
		if d.ProductMissing(p) != 0 {
			return true
		}
	}
	return false
}

// ProductWanted 汇总所有订单对该商品的最终数量（wanted+adjustment）
func (d *Delivery) ProductWanted(product Product) int {
	total := 0
	for _, order := range d.Orders {
		if po, ok := order.Products[product.Ref]; ok {
			total += po.Quantity()
		}
	}
	return total
}

// ProductMissing 凑满下一个整件还缺多少件；无整件约束或正好整件时为 0。
// 结果只作校正参考，是否补齐由管理员决定。
func (d *Delivery) ProductMissing(product Product) int {
	if !product.HasPacking() {
		return 0
	}
	orphan := d.ProductWanted(product) % product.Packing
	if orphan == 0 {
		return 0
	}
	return product.Packing - orphan
}

// HasOrder 该买家是否已有订单
func (d *Delivery) HasOrder(buyerID string) bool {
	_, ok := d.Orders[buyerID]
	return ok
}

// GetProduct 按 ref 查找商品
func (d *Delivery) GetProduct(ref string) (Product, bool) {
	for _, p := range d.Products {
		if p.Ref == ref {
			return p, true
		}
	}
	return Product{}, false
}

// GetProductsBy 某供应商的全部商品
func (d *Delivery) GetProductsBy(producerID string) []Product {
	var products []Product
	for _, p := range d.Products {
		if p.Producer == producerID {
			products = append(products, p)
		}
	}
	return products
}

// DeleteProduct 从目录删除商品，并把它从所有订单里摘掉
func (d *Delivery) DeleteProduct(ref string) (Product, bool) {
	for i, p := range d.Products {
		if p.Ref != ref {
			continue
		}
		d.Products = append(d.Products[:i], d.Products[i+1:]...)
		for buyerID, order := range d.Orders {
			if _, ok := order.Products[ref]; ok {
				delete(order.Products, ref)
				d.Orders[buyerID] = order
			}
		}
		return p, true
	}
	return Product{}, false
}

// GetReferents 所有供应商对接人邮箱
func (d *Delivery) GetReferents() []string {
	referents := make([]string, 0, len(d.Producers))
	for _, producer := range d.Producers {
		referents = append(referents, producer.Referent)
	}
	sort.Strings(referents)
	return referents
}

// GetProducersForReferent 某对接人负责的全部供应商
func (d *Delivery) GetProducersForReferent(referent string) map[string]Producer {
	producers := map[string]Producer{}
	for id, producer := range d.Producers {
		if producer.Referent == referent {
			producers[id] = producer
		}
	}
	return producers
}

// SortedProducerIDs 按 id 排序的供应商列表；需要确定遍历顺序的地方都用它
func (d *Delivery) SortedProducerIDs() []string {
	ids := make([]string, 0, len(d.Producers))
	for id := range d.Producers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Total 配送总金额：所有订单含运费的总和，舍入到 2 位小数
func (d *Delivery) Total() Money {
	total := decimal.Zero
	for buyerID, order := range d.Orders {
		total = total.Add(order.Total(d.Products, d, buyerID, true).Decimal)
	}
	return Money{Decimal: total}.Rounded()
}

// TotalFor 某买家的订单总额（含运费）；无订单时为 0
func (d *Delivery) TotalFor(buyerID string) Money {
	order, ok := d.Orders[buyerID]
	if !ok {
		return Money{Decimal: decimal.Zero}
	}
	return order.Total(d.Products, d, buyerID, true)
}

// TotalForProducer 某供应商的金额汇总。
// buyerID 非空时返回该买家在此供应商名下的订单金额；
// 为空时返回所有买家的货款之和（运费只整笔计一次，避免重复分摊）。
func (d *Delivery) TotalForProducer(producerID string, buyerID string, includeShipping bool) Money {
	products := d.GetProductsBy(producerID)
	if buyerID != "" {
		order, ok := d.Orders[buyerID]
		if !ok {
			return Money{Decimal: decimal.Zero}
		}
		return order.Total(products, d, buyerID, includeShipping)
	}

	total := decimal.Zero
	for _, order := range d.Orders {
		total = total.Add(order.productsTotal(products))
	}
	if includeShipping {
		if fee, ok := d.Shipping[producerID]; ok {
			total = total.Add(fee.Decimal)
		}
	}
	return Money{Decimal: total}.Rounded()
}

// ShippingFor 运费分摊：按买家货款占该供应商总货款的比例切分固定运费。
// buyerID 为空时返回整笔运费；供应商总货款为 0 时分摊额为 0（不报错）。
func (d *Delivery) ShippingFor(buyerID string, producerID string) decimal.Decimal {
	fee, ok := d.Shipping[producerID]
	if !ok || fee.IsZero() {
		return decimal.Zero
	}
	if buyerID == "" {
		return fee.Decimal
	}

	products := d.GetProductsBy(producerID)
	producerTotal := decimal.Zero
	for _, order := range d.Orders {
		producerTotal = producerTotal.Add(order.productsTotal(products))
	}
	if producerTotal.IsZero() {
		return decimal.Zero
	}

	order, ok := d.Orders[buyerID]
	if !ok {
		return decimal.Zero
	}
	buyerAmount := order.productsTotal(products)
	return fee.Decimal.Mul(buyerAmount).Div(producerTotal)
}

// ValidateAllPrices 把所有商品的报价时间刷新到现在
func (d *Delivery) ValidateAllPrices(now time.Time) {
	for i := range d.Products {
		d.Products[i].LastUpdate = now
	}
}

// CloneCatalog 深拷贝目录（商品与供应商），用于把目录移交给下一次配送
func (d *Delivery) CloneCatalog() ([]Product, map[string]Producer) {
	products := make([]Product, len(d.Products))
	copy(products, d.Products)
	producers := make(map[string]Producer, len(d.Producers))
	for id, producer := range d.Producers {
		producers[id] = producer
	}
	return products, producers
}

// DedupeProducts 修复重复 ref：给出现次数最多的 ref 的最后一次出现补上
// "-dedupe" 后缀。返回是否发现过重复（发现即需要重新落盘）。
func (d *Delivery) DedupeProducts() bool {
	if len(d.Products) < 2 {
		return false
	}
	counts := map[string]int{}
	for _, p := range d.Products {
		counts[p.Ref]++
	}
	dupeRef, dupeCount := "", 0
	for ref, count := range counts {
		if count > dupeCount || (count == dupeCount && ref < dupeRef) {
			dupeRef, dupeCount = ref, count
		}
	}
	if dupeCount < 2 {
		return false
	}
	seen := 0
	for i := range d.Products {
		if d.Products[i].Ref != dupeRef {
			continue
		}
		seen++
		if seen == dupeCount {
			d.Products[i].Ref = dupeRef + "-dedupe"
		}
	}
	return true
}

// dateOnly 丢掉时分秒，按天比较日期
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
