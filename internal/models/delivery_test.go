package models

import (
	"testing"
	"time"
)

// 基准日期，测试里所有相对日期都从它推
var baseDay = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func newTestDelivery() *Delivery {
	return &Delivery{
		ID:          "test",
		Name:        "Marché",
		Contact:     "alice@example.org",
		FromDate:    baseDay.AddDate(0, 0, 14),
		ToDate:      baseDay.AddDate(0, 0, 14),
		OrderBefore: baseDay.AddDate(0, 0, 7),
		Producers: map[string]Producer{
			"laiterie": {ID: "laiterie", Name: "Laiterie", Referent: "bob@example.org"},
		},
		Products: []Product{
			{Ref: "lait", Name: "Lait", Price: NewMoneyFromFloat(1.5), Producer: "laiterie", LastUpdate: baseDay},
		},
		Orders: map[string]Order{},
	}
}

func TestStatusOpenWhileBeforeDeadline(t *testing.T) {
	d := newTestDelivery()
	if got := d.StatusAt(baseDay); got != StatusOpen {
		t.Fatalf("expected open, got %s", got)
	}
	// 截止当天仍可下单（按天比较）
	if got := d.StatusAt(d.OrderBefore.Add(5 * time.Hour)); got != StatusOpen {
		t.Fatalf("deadline day should still be open, got %s", got)
	}
}

func TestStatusWaitingProductsThenClosed(t *testing.T) {
	d := newTestDelivery()
	if got := d.StatusAt(d.OrderBefore.AddDate(0, 0, 1)); got != StatusWaitingProducts {
		t.Fatalf("expected waiting_products, got %s", got)
	}
	if got := d.StatusAt(d.FromDate.AddDate(0, 0, 1)); got != StatusClosed {
		t.Fatalf("expected closed, got %s", got)
	}
}

func TestStatusPriorityOverrides(t *testing.T) {
	d := newTestDelivery()
	d.ID = ArchivePrefix + d.ID
	if got := d.StatusAt(baseDay); got != StatusArchived {
		t.Fatalf("archive prefix must win, got %s", got)
	}

	d = newTestDelivery()
	d.Over = true
	if got := d.StatusAt(baseDay); got != StatusOver {
		t.Fatalf("over flag must win, got %s", got)
	}

	d = newTestDelivery()
	d.Products = nil
	if got := d.StatusAt(baseDay); got != StatusEmpty {
		t.Fatalf("empty catalog expected, got %s", got)
	}

	d = newTestDelivery()
	d.Products[0].LastUpdate = d.FromDate.AddDate(0, 0, -priceMaxAgeDays-1)
	if got := d.StatusAt(baseDay); got != StatusNeedPriceUpdate {
		t.Fatalf("stale price expected need_price_update, got %s", got)
	}
	// 供应商已不在目录时不再要求价格更新
	d.Producers = map[string]Producer{}
	if got := d.StatusAt(baseDay); got != StatusOpen {
		t.Fatalf("orphan producer price should be ignored, got %s", got)
	}
}

func TestStatusIsIdempotent(t *testing.T) {
	d := newTestDelivery()
	now := baseDay
	first := d.StatusAt(now)
	for i := 0; i < 5; i++ {
		if got := d.StatusAt(now); got != first {
			t.Fatalf("status must be a pure function of clock+data, got %s then %s", first, got)
		}
	}
}

func TestStatusAdjustmentWhenPackingUnaligned(t *testing.T) {
	d := newTestDelivery()
	d.Products = append(d.Products, Product{
		Ref: "yaourt", Name: "Yaourt", Price: NewMoneyFromFloat(0.8),
		Packing: 6, Producer: "laiterie", LastUpdate: baseDay,
	})
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{"yaourt": {Wanted: 9}}}

	afterDeadline := d.OrderBefore.AddDate(0, 0, 1)
	if got := d.StatusAt(afterDeadline); got != StatusAdjustment {
		t.Fatalf("9 of packing 6 needs adjustment, got %s", got)
	}

	yaourt, _ := d.GetProduct("yaourt")
	if missing := d.ProductMissing(yaourt); missing != 3 {
		t.Fatalf("expected 3 missing to fill the next pack, got %d", missing)
	}

	// 校正后对齐整件，进入等待到货
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{"yaourt": {Wanted: 9, Adjustment: 3}}}
	if got := d.StatusAt(afterDeadline); got != StatusWaitingProducts {
		t.Fatalf("aligned packing should leave adjustment, got %s", got)
	}
	if missing := d.ProductMissing(yaourt); missing != 0 {
		t.Fatalf("aligned packing should have 0 missing, got %d", missing)
	}
}

func TestProductMissingRange(t *testing.T) {
	d := newTestDelivery()
	product := Product{Ref: "p", Price: NewMoneyFromFloat(1), Packing: 6, Producer: "laiterie", LastUpdate: baseDay}
	d.Products = []Product{product}
	for wanted := 0; wanted <= 20; wanted++ {
		d.Orders = map[string]Order{
			"g1": {Products: map[string]ProductOrder{"p": {Wanted: wanted}}},
		}
		missing := d.ProductMissing(product)
		if missing < 0 || missing >= product.Packing {
			t.Fatalf("wanted=%d: missing %d out of range [0,%d)", wanted, missing, product.Packing)
		}
		if (d.ProductWanted(product)+missing)%product.Packing != 0 {
			t.Fatalf("wanted=%d: wanted+missing must align to packing", wanted)
		}
	}
}

func TestOrderTotalScenario(t *testing.T) {
	d := newTestDelivery()
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{"lait": {Wanted: 4, Adjustment: 1}}}

	// 1.5 × (4+1) = 7.5
	if got := d.TotalFor("g1").String(); got != "7.50" {
		t.Fatalf("expected 7.50, got %s", got)
	}
	if got := d.Total().String(); got != "7.50" {
		t.Fatalf("delivery total expected 7.50, got %s", got)
	}
}

func TestRuptureAndRemovedProductsPriceAsZero(t *testing.T) {
	d := newTestDelivery()
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{
		"lait":     {Wanted: 2},
		"fantasma": {Wanted: 10}, // 已从目录移除
	}}
	if got := d.TotalFor("g1").String(); got != "3.00" {
		t.Fatalf("removed ref must price as 0, got %s", got)
	}

	d.Products[0].Rupture = "récolte perdue"
	if got := d.TotalFor("g1").String(); got != "0.00" {
		t.Fatalf("rupture product must price as 0, got %s", got)
	}
}

func TestShippingSplitProportionally(t *testing.T) {
	d := newTestDelivery()
	d.Shipping = map[string]Money{"laiterie": NewMoneyFromFloat(10)}
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{"lait": {Wanted: 3}}}
	d.Orders["g2"] = Order{Products: map[string]ProductOrder{"lait": {Wanted: 7}}}

	// 货款占比 3:7，运费 10 按比例分摊
	if got := d.ShippingFor("g1", "laiterie").String(); got != "3" {
		t.Fatalf("g1 share expected 3, got %s", got)
	}
	if got := d.ShippingFor("g2", "laiterie").String(); got != "7" {
		t.Fatalf("g2 share expected 7, got %s", got)
	}
	// 整笔运费
	if got := d.ShippingFor("", "laiterie").String(); got != "10" {
		t.Fatalf("whole fee expected 10, got %s", got)
	}

	// 买家总额：货款 + 分摊
	if got := d.TotalFor("g1").String(); got != "7.50" {
		t.Fatalf("g1 total expected 4.50+3=7.50, got %s", got)
	}
}

func TestShippingOnZeroRevenueIsZero(t *testing.T) {
	d := newTestDelivery()
	d.Shipping = map[string]Money{"laiterie": NewMoneyFromFloat(10)}
	// 没有任何订单：分摊为 0，不报错
	if got := d.ShippingFor("g1", "laiterie"); !got.IsZero() {
		t.Fatalf("zero revenue must split to 0, got %s", got.String())
	}
}

func TestTotalForProducerCountsFeeOnce(t *testing.T) {
	d := newTestDelivery()
	d.Shipping = map[string]Money{"laiterie": NewMoneyFromFloat(10)}
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{"lait": {Wanted: 3}}}
	d.Orders["g2"] = Order{Products: map[string]ProductOrder{"lait": {Wanted: 7}}}

	// 货款 15 + 整笔运费 10
	if got := d.TotalForProducer("laiterie", "", true).String(); got != "25.00" {
		t.Fatalf("producer total expected 25.00, got %s", got)
	}
	if got := d.TotalForProducer("laiterie", "", false).String(); got != "15.00" {
		t.Fatalf("producer goods total expected 15.00, got %s", got)
	}
}

func TestDeleteProductStripsOrders(t *testing.T) {
	d := newTestDelivery()
	d.Orders["g1"] = Order{Products: map[string]ProductOrder{"lait": {Wanted: 2}}}
	if _, ok := d.DeleteProduct("lait"); !ok {
		t.Fatalf("delete should find lait")
	}
	if len(d.Orders["g1"].Products) != 0 {
		t.Fatalf("orders must not keep refs of deleted products")
	}
	if _, ok := d.DeleteProduct("lait"); ok {
		t.Fatalf("second delete should miss")
	}
}

func TestDedupeProductsRenamesLastOccurrence(t *testing.T) {
	d := newTestDelivery()
	d.Products = []Product{
		{Ref: "lait", Price: NewMoneyFromFloat(1.5), LastUpdate: baseDay},
		{Ref: "pain", Price: NewMoneyFromFloat(2), LastUpdate: baseDay},
		{Ref: "lait", Price: NewMoneyFromFloat(1.6), LastUpdate: baseDay},
	}
	if !d.DedupeProducts() {
		t.Fatalf("duplicate ref should be detected")
	}
	if d.Products[0].Ref != "lait" || d.Products[2].Ref != "lait-dedupe" {
		t.Fatalf("last occurrence must be renamed, got %q / %q", d.Products[0].Ref, d.Products[2].Ref)
	}
	if d.DedupeProducts() {
		t.Fatalf("second pass should be clean")
	}
}

func TestCloneCatalogIsDeep(t *testing.T) {
	d := newTestDelivery()
	products, producers := d.CloneCatalog()
	products[0].Name = "changed"
	producers["laiterie"] = Producer{ID: "laiterie", Name: "changed"}
	if d.Products[0].Name == "changed" {
		t.Fatalf("product clone must not alias the source")
	}
	if d.Producers["laiterie"].Name == "changed" {
		t.Fatalf("producer clone must not alias the source")
	}
}

func TestPersonIdentity(t *testing.T) {
	p := Person{Email: "alice@example.org"}
	if p.ID() != "alice@example.org" {
		t.Fatalf("solo buyer keys by email")
	}
	p.GroupID = "famille"
	if p.ID() != "famille" {
		t.Fatalf("group member keys by group id")
	}
	if !p.IsStaff(nil) {
		t.Fatalf("empty staff list means everyone is staff")
	}
	if p.IsStaff([]string{"other@example.org"}) {
		t.Fatalf("non-listed email is not staff")
	}
	if !p.IsStaff([]string{" Alice@Example.org "}) {
		t.Fatalf("staff match is case-insensitive and trims spaces")
	}
}
