package service

import (
	"errors"
	"testing"
	"time"

	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"
)

func newDeliveryService(t *testing.T) (*DeliveryService, *storage.DeliveryStore) {
	t.Helper()
	store := storage.NewDeliveryStore(t.TempDir())
	return NewDeliveryService(store, staffList, nil), store
}

func validInput() DeliveryInput {
	now := time.Now()
	return DeliveryInput{
		Name:        "Marché d'automne",
		Contact:     "admin@example.org",
		FromDate:    now.AddDate(0, 0, 21),
		OrderBefore: now.AddDate(0, 0, 14),
	}
}

func TestCreateDelivery(t *testing.T) {
	svc, _ := newDeliveryService(t)

	if _, err := svc.Create(buyer, validInput()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("create is staff only, got %v", err)
	}

	created, err := svc.Create(admin, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("created delivery must carry an id")
	}
	// ToDate 缺省时取配送日
	if !created.ToDate.Equal(created.FromDate) {
		t.Fatalf("to_date must default to from_date")
	}
	if got := created.Status(); got != models.StatusEmpty {
		t.Fatalf("fresh delivery has no catalog, expected empty, got %s", got)
	}
}

func TestCreateDeliveryValidation(t *testing.T) {
	svc, _ := newDeliveryService(t)

	input := validInput()
	input.Name = "  "
	if _, err := svc.Create(admin, input); err == nil {
		t.Fatalf("blank name must fail")
	}

	input = validInput()
	input.OrderBefore = input.FromDate.AddDate(0, 0, 1)
	if _, err := svc.Create(admin, input); !errors.Is(err, models.ErrInvalidDate) {
		t.Fatalf("deadline after delivery date must fail, got %v", err)
	}
}

func TestCatalogEditableByStaffOrReferent(t *testing.T) {
	svc, store := newDeliveryService(t)
	d := openDelivery(t, store)
	referent := models.Person{Email: "bob@example.org"}

	input := ProductInput{Ref: "pain", Name: "Pain", Price: "2,50 €", Producer: "laiterie"}
	if _, err := svc.UpsertProduct(stranger, d.ID, input); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("outsider must not edit the catalog, got %v", err)
	}
	updated, err := svc.UpsertProduct(referent, d.ID, input)
	if err != nil {
		t.Fatalf("referent edit failed: %v", err)
	}
	product, ok := updated.GetProduct("pain")
	if !ok || product.Price.String() != "2.50" {
		t.Fatalf("product not upserted: %+v", product)
	}

	// 同 ref 再次提交是替换而不是追加
	input.Name = "Pain complet"
	updated, err = svc.UpsertProduct(admin, d.ID, input)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, p := range updated.Products {
		if p.Ref == "pain" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("upsert must replace in place, found %d entries", count)
	}
}

func TestDeleteProducerCascades(t *testing.T) {
	svc, store := newDeliveryService(t)
	d := openDelivery(t, store)
	d.Shipping = map[string]models.Money{"laiterie": models.NewMoneyFromFloat(5)}
	d.Orders["famille"] = models.Order{Products: map[string]models.ProductOrder{"lait": {Wanted: 2}}}
	if err := store.Persist(d); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.DeleteProducer(admin, d.ID, "laiterie")
	if err != nil {
		t.Fatalf("delete producer failed: %v", err)
	}
	if len(updated.Products) != 0 {
		t.Fatalf("producer's products must go with it, got %d", len(updated.Products))
	}
	if _, ok := updated.Shipping["laiterie"]; ok {
		t.Fatalf("shipping entry must be removed")
	}
	if len(updated.Orders["famille"].Products) != 0 {
		t.Fatalf("orders must not keep refs of removed products")
	}
	if _, err := svc.DeleteProducer(admin, d.ID, "laiterie"); !errors.Is(err, ErrProducerNotFound) {
		t.Fatalf("second delete must miss, got %v", err)
	}
}

func TestSetShippingRequiresKnownProducer(t *testing.T) {
	svc, store := newDeliveryService(t)
	d := openDelivery(t, store)

	if _, err := svc.SetShipping(admin, d.ID, "fantasma", models.NewMoneyFromFloat(5)); !errors.Is(err, ErrProducerNotFound) {
		t.Fatalf("unknown producer must fail, got %v", err)
	}
	updated, err := svc.SetShipping(admin, d.ID, "laiterie", models.NewMoneyFromFloat(5))
	if err != nil {
		t.Fatalf("set shipping failed: %v", err)
	}
	if got := updated.Shipping["laiterie"].String(); got != "5.00" {
		t.Fatalf("fee mismatch: %s", got)
	}
}

func TestValidatePricesClearsStaleStatus(t *testing.T) {
	svc, store := newDeliveryService(t)
	d := openDelivery(t, store)
	stale := d.FromDate.AddDate(0, -8, 0)
	for i := range d.Products {
		d.Products[i].LastUpdate = stale
	}
	if err := store.Persist(d); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load(d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := loaded.Status(); got != models.StatusNeedPriceUpdate {
		t.Fatalf("stale prices expected need_price_update, got %s", got)
	}

	updated, err := svc.ValidatePrices(models.Person{Email: "bob@example.org"}, d.ID)
	if err != nil {
		t.Fatalf("validate prices failed: %v", err)
	}
	if got := updated.Status(); got != models.StatusOpen {
		t.Fatalf("refreshed prices expected open, got %s", got)
	}
}

func TestHandOverClonesCatalogAndEndsOldDelivery(t *testing.T) {
	svc, store := newDeliveryService(t)
	d := openDelivery(t, store)
	d.Orders["famille"] = models.Order{Products: map[string]models.ProductOrder{"lait": {Wanted: 2}}}
	if err := store.Persist(d); err != nil {
		t.Fatal(err)
	}

	referents := map[string]ReferentUpdate{
		"laiterie": {Referent: "dora@example.org", ReferentName: "Dora"},
	}
	next, err := svc.HandOver(admin, d.ID, validInput(), referents, "au suivant")
	if err != nil {
		t.Fatalf("handover failed: %v", err)
	}
	if next.ID == d.ID {
		t.Fatalf("handover must mint a new delivery")
	}
	if len(next.Products) != len(d.Products) {
		t.Fatalf("catalog must carry over, got %d products", len(next.Products))
	}
	if len(next.Orders) != 0 {
		t.Fatalf("orders must not carry over")
	}
	if got := next.Producers["laiterie"].Referent; got != "dora@example.org" {
		t.Fatalf("referent replacement lost, got %q", got)
	}

	old, err := store.Load(d.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !old.Over {
		t.Fatalf("old delivery must be marked over")
	}
	if got := old.Status(); got != models.StatusOver {
		t.Fatalf("over flag must dominate status, got %s", got)
	}

	// 已接替的配送不能再交接
	if _, err := svc.HandOver(admin, d.ID, validInput(), nil, ""); !errors.Is(err, ErrDeliveryClosed) {
		t.Fatalf("second handover must fail, got %v", err)
	}
	// 未知供应商的对接人替换要报错
	if _, err := svc.HandOver(admin, next.ID, validInput(), map[string]ReferentUpdate{"fantasma": {}}, ""); !errors.Is(err, ErrProducerNotFound) {
		t.Fatalf("unknown producer key must fail, got %v", err)
	}
}

func TestArchiveLifecycle(t *testing.T) {
	svc, store := newDeliveryService(t)
	d := openDelivery(t, store)

	if _, err := svc.Archive(buyer, d.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("archive is staff only, got %v", err)
	}
	archivedID, err := svc.Archive(admin, d.ID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	archived, err := svc.Archived()
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].ID != archivedID {
		t.Fatalf("archived listing mismatch: %v", archived)
	}
	if _, err := svc.Unarchive(admin, archivedID); err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	if _, err := svc.Get(d.ID); err != nil {
		t.Fatalf("restored delivery must load by its original id: %v", err)
	}
}
