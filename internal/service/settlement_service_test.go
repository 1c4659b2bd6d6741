package service

import (
	"testing"
	"time"

	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"

	"github.com/shopspring/decimal"
)

func settlementFixture(t *testing.T) (*SettlementService, string) {
	t.Helper()
	root := t.TempDir()
	store := storage.NewDeliveryStore(root)
	groupStore := storage.NewGroupStore(root)

	groups, err := groupStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := groups.AddGroup(models.Group{ID: "coloc", Name: "Coloc", Members: []string{"carol@example.org"}}); err != nil {
		t.Fatal(err)
	}
	if err := groupStore.Persist(groups); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	d := &models.Delivery{
		Name:        "Marché",
		Contact:     "admin@example.org",
		FromDate:    now.AddDate(0, 0, -1),
		ToDate:      now.AddDate(0, 0, -1),
		OrderBefore: now.AddDate(0, 0, -7),
		Producers: map[string]models.Producer{
			"laiterie": {ID: "laiterie", Name: "Laiterie", Referent: "bob@example.org", ReferentName: "Bob"},
			"ferme":    {ID: "ferme", Name: "Ferme", Referent: "carol@example.org", ReferentName: "Carol"},
			"miel":     {ID: "miel", Name: "Miellerie", Referent: "carol@example.org", ReferentName: "Caroline"},
		},
		Products: []models.Product{
			{Ref: "lait", Name: "Lait", Price: models.NewMoneyFromFloat(1.5), Producer: "laiterie", LastUpdate: now},
			{Ref: "carottes", Name: "Carottes", Price: models.NewMoneyFromFloat(2), Producer: "ferme", LastUpdate: now},
			{Ref: "pot", Name: "Miel", Price: models.NewMoneyFromFloat(5), Producer: "miel", LastUpdate: now},
		},
		Shipping: map[string]models.Money{"laiterie": models.NewMoneyFromFloat(1)},
		Orders: map[string]models.Order{
			"g1": {Products: map[string]models.ProductOrder{"lait": {Wanted: 2}}},
			"g2": {Products: map[string]models.ProductOrder{"carottes": {Wanted: 3}, "pot": {Wanted: 1}}},
		},
	}
	if err := store.Persist(d); err != nil {
		t.Fatal(err)
	}
	return NewSettlementService(store, groupStore), d.ID
}

func TestComputePaymentsBucketsByReferentGroup(t *testing.T) {
	svc, id := settlementFixture(t)
	settlement, err := svc.ComputePayments(id)
	if err != nil {
		t.Fatalf("compute payments failed: %v", err)
	}

	// 买家记负、收款方记正，总账必须归零
	total := decimal.Zero
	amounts := map[string]decimal.Decimal{}
	for _, entry := range settlement.Entries {
		total = total.Add(entry.Amount)
		amounts[entry.Party] = amounts[entry.Party].Add(entry.Amount)
	}
	if !total.IsZero() {
		t.Fatalf("ledger must net to zero, got %s", total)
	}

	// g1：货款 3 + 运费 1
	if !amounts["g1"].Equal(decimal.RequireFromString("-4")) {
		t.Fatalf("g1 expected -4, got %s", amounts["g1"])
	}
	if !amounts["g2"].Equal(decimal.RequireFromString("-11")) {
		t.Fatalf("g2 expected -11, got %s", amounts["g2"])
	}

	// ferme 的对接人 Carol 先占下 coloc 团体桶
	if !amounts["coloc"].Equal(decimal.RequireFromString("6")) {
		t.Fatalf("group payee expected 6, got %s", amounts["coloc"])
	}
	// miel 的对接人邮箱相同但姓名不同：不并入团体，按姓名单独成桶
	if !amounts["Caroline"].Equal(decimal.RequireFromString("5")) {
		t.Fatalf("ousted referent expected own bucket of 5, got %s", amounts["Caroline"])
	}
	// bob 不属于任何团体：按姓名独立成桶，含整笔运费
	if !amounts["Bob"].Equal(decimal.RequireFromString("4")) {
		t.Fatalf("solo payee expected 4, got %s", amounts["Bob"])
	}
}

func TestComputePaymentsPayeeNamesFirstSeenWins(t *testing.T) {
	svc, id := settlementFixture(t)
	settlement, err := svc.ComputePayments(id)
	if err != nil {
		t.Fatal(err)
	}
	// 供应商按 id 排序遍历：ferme 先于 miel，Carol 先占团体名额
	if got := settlement.PayeeNames["coloc"]; got != "Carol" {
		t.Fatalf("first producer seen must name the group payee, got %q", got)
	}
	if got := settlement.PayeeNames["Caroline"]; got != "Caroline" {
		t.Fatalf("split bucket keeps its own name, got %q", got)
	}
	if got := settlement.PayeeNames["Bob"]; got != "Bob" {
		t.Fatalf("referent name expected Bob, got %q", got)
	}
}

func TestComputePaymentsSameGroupClaimByReferentName(t *testing.T) {
	root := t.TempDir()
	store := storage.NewDeliveryStore(root)
	groupStore := storage.NewGroupStore(root)

	groups, err := groupStore.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := groups.AddGroup(models.Group{ID: "coloc", Name: "Coloc", Members: []string{"carol@example.org", "dora@example.org"}}); err != nil {
		t.Fatal(err)
	}
	if err := groupStore.Persist(groups); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	d := &models.Delivery{
		Name:        "Marché",
		Contact:     "admin@example.org",
		FromDate:    now.AddDate(0, 0, -1),
		ToDate:      now.AddDate(0, 0, -1),
		OrderBefore: now.AddDate(0, 0, -7),
		Producers: map[string]models.Producer{
			"a-ferme": {ID: "a-ferme", Name: "Ferme", Referent: "carol@example.org", ReferentName: "Carol"},
			"b-oeufs": {ID: "b-oeufs", Name: "Oeufs", Referent: "dora@example.org", ReferentName: "Carol"},
			"c-miel":  {ID: "c-miel", Name: "Miellerie", Referent: "carol@example.org", ReferentName: "Caroline"},
		},
		Products: []models.Product{
			{Ref: "carottes", Name: "Carottes", Price: models.NewMoneyFromFloat(2), Producer: "a-ferme", LastUpdate: now},
			{Ref: "oeufs", Name: "Oeufs", Price: models.NewMoneyFromFloat(1), Producer: "b-oeufs", LastUpdate: now},
			{Ref: "pot", Name: "Miel", Price: models.NewMoneyFromFloat(5), Producer: "c-miel", LastUpdate: now},
		},
		Orders: map[string]models.Order{
			"g1": {Products: map[string]models.ProductOrder{
				"carottes": {Wanted: 3},
				"oeufs":    {Wanted: 2},
				"pot":      {Wanted: 1},
			}},
		},
	}
	if err := store.Persist(d); err != nil {
		t.Fatal(err)
	}

	settlement, err := NewSettlementService(store, groupStore).ComputePayments(d.ID)
	if err != nil {
		t.Fatalf("compute payments failed: %v", err)
	}
	amounts := map[string]decimal.Decimal{}
	for _, entry := range settlement.Entries {
		amounts[entry.Party] = amounts[entry.Party].Add(entry.Amount)
	}
	// 同团体同姓名的两个供应商并入团体桶：6 + 2
	if !amounts["coloc"].Equal(decimal.RequireFromString("8")) {
		t.Fatalf("same referent name must share the group bucket, got %s", amounts["coloc"])
	}
	// 同团体但姓名不同：让出团体桶，按自己的姓名单列
	if !amounts["Caroline"].Equal(decimal.RequireFromString("5")) {
		t.Fatalf("different referent name must split out, got %s", amounts["Caroline"])
	}
	if _, ok := amounts["carol@example.org"]; ok {
		t.Fatalf("referent emails must not surface as payees")
	}
}

func TestComputePaymentsTransfersSettleEverything(t *testing.T) {
	svc, id := settlementFixture(t)
	settlement, err := svc.ComputePayments(id)
	if err != nil {
		t.Fatal(err)
	}
	moved := decimal.Zero
	for _, transfer := range settlement.Transfers {
		moved = moved.Add(transfer.Amount)
	}
	if !moved.Equal(decimal.RequireFromString("15")) {
		t.Fatalf("transfers must move the full 15, got %s", moved)
	}
	if bound := len(settlement.Debtors) + len(settlement.Creditors) - 1; len(settlement.Transfers) > bound {
		t.Fatalf("transfer count %d exceeds bound %d", len(settlement.Transfers), bound)
	}
}
