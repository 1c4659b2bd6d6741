package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/copanier-next/internal/models"
)

func testDelivery() *models.Delivery {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return &models.Delivery{
		Name:        "Marché",
		Contact:     "alice@example.org",
		FromDate:    day.AddDate(0, 0, 14),
		ToDate:      day.AddDate(0, 0, 14),
		OrderBefore: day.AddDate(0, 0, 7),
		Producers: map[string]models.Producer{
			"laiterie": {ID: "laiterie", Name: "Laiterie", Referent: "bob@example.org"},
		},
		Products: []models.Product{
			{Ref: "lait", Name: "Lait", Price: models.NewMoneyFromFloat(1.5), Producer: "laiterie", LastUpdate: day},
		},
		Orders: map[string]models.Order{
			"g1": {Products: map[string]models.ProductOrder{"lait": {Wanted: 4, Adjustment: 1}}},
		},
	}
}

func TestPersistMintsIDAndRoundTrips(t *testing.T) {
	store := NewDeliveryStore(t.TempDir())
	d := testDelivery()
	if err := store.Persist(d); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	if d.ID == "" || strings.Contains(d.ID, "-") {
		t.Fatalf("expected bare hex id, got %q", d.ID)
	}

	loaded, err := store.Load(d.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != d.Name || loaded.Contact != d.Contact {
		t.Fatalf("metadata mismatch after round trip")
	}
	po := loaded.Orders["g1"].Products["lait"]
	if po.Wanted != 4 || po.Adjustment != 1 {
		t.Fatalf("order mismatch after round trip: %+v", po)
	}
	if got := loaded.Products[0].Price.String(); got != "1.50" {
		t.Fatalf("price mismatch after round trip: %s", got)
	}
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	store := NewDeliveryStore(t.TempDir())
	if _, err := store.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadToleratesUnknownFields(t *testing.T) {
	root := t.TempDir()
	store := NewDeliveryStore(root)
	record := `name: Marché
contact: alice@example.org
from_date: 2026-09-15T00:00:00Z
to_date: 2026-09-15T00:00:00Z
order_before: 2026-09-08T00:00:00Z
future_field: whatever
products: []
`
	path := filepath.Join(root, "delivery", "legacy.yml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load("legacy")
	if err != nil {
		t.Fatalf("unknown fields must be tolerated: %v", err)
	}
	if loaded.Name != "Marché" {
		t.Fatalf("known fields must survive, got %q", loaded.Name)
	}
}

func TestLoadRepairsDuplicateRefs(t *testing.T) {
	store := NewDeliveryStore(t.TempDir())
	d := testDelivery()
	d.Products = append(d.Products, models.Product{
		Ref: "lait", Name: "Lait bis", Price: models.NewMoneyFromFloat(1.6), Producer: "laiterie", LastUpdate: time.Now(),
	})
	if err := store.Persist(d); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	loaded, err := store.Load(d.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Products[1].Ref != "lait-dedupe" {
		t.Fatalf("duplicate must be repaired on load, got %q", loaded.Products[1].Ref)
	}
	// 修复必须已经回写
	again, err := store.Load(d.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.Products[1].Ref != "lait-dedupe" {
		t.Fatalf("repair must be persisted, got %q", again.Products[1].Ref)
	}
}

func TestArchiveRoundTripKeepsBytes(t *testing.T) {
	root := t.TempDir()
	store := NewDeliveryStore(root)
	d := testDelivery()
	if err := store.Persist(d); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	originalBytes, err := os.ReadFile(filepath.Join(root, "delivery", d.ID+".yml"))
	if err != nil {
		t.Fatal(err)
	}

	archivedID, err := store.Archive(d.ID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if archivedID != models.ArchivePrefix+d.ID {
		t.Fatalf("unexpected archived id %q", archivedID)
	}
	archivedBytes, err := os.ReadFile(filepath.Join(root, "delivery", "archive", d.ID+".yml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(archivedBytes) != string(originalBytes) {
		t.Fatalf("archival must not rewrite the record")
	}

	loaded, err := store.Load(archivedID)
	if err != nil {
		t.Fatalf("load archived failed: %v", err)
	}
	if !loaded.Archived() {
		t.Fatalf("loaded archived record must report archived")
	}

	restoredID, err := store.Unarchive(archivedID)
	if err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	if restoredID != d.ID {
		t.Fatalf("unarchive must restore the original id, got %q", restoredID)
	}
	restoredBytes, err := os.ReadFile(filepath.Join(root, "delivery", d.ID+".yml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(restoredBytes) != string(originalBytes) {
		t.Fatalf("round trip must be bit-for-bit")
	}
}

func TestDoubleArchiveFailsLoudly(t *testing.T) {
	store := NewDeliveryStore(t.TempDir())
	d := testDelivery()
	if err := store.Persist(d); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	archivedID, err := store.Archive(d.ID)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if _, err := store.Archive(archivedID); !errors.Is(err, ErrAlreadyArchived) {
		t.Fatalf("double archive must fail with ErrAlreadyArchived, got %v", err)
	}
	if _, err := store.Unarchive(d.ID); !errors.Is(err, ErrNotArchived) {
		t.Fatalf("unarchive of live record must fail with ErrNotArchived, got %v", err)
	}
}

func TestListSeparatesNamespaces(t *testing.T) {
	store := NewDeliveryStore(t.TempDir())
	d1, d2 := testDelivery(), testDelivery()
	if err := store.Persist(d1); err != nil {
		t.Fatal(err)
	}
	if err := store.Persist(d2); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Archive(d1.ID); err != nil {
		t.Fatal(err)
	}

	live, err := store.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 || live[0] != d2.ID {
		t.Fatalf("live namespace mismatch: %v", live)
	}
	archived, err := store.List("archive")
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0] != models.ArchivePrefix+d1.ID {
		t.Fatalf("archive namespace mismatch: %v", archived)
	}
}

func TestGroupStoreRoundTrip(t *testing.T) {
	store := NewGroupStore(t.TempDir())
	groups, err := store.Load()
	if err != nil {
		t.Fatalf("missing file must yield empty registry: %v", err)
	}
	if groups.IsDefined() {
		t.Fatalf("fresh registry must be empty")
	}

	if err := groups.AddGroup(models.Group{ID: "g1", Name: "Groupe 1", Members: []string{"a@example.org"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Persist(groups); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	group, ok := loaded.UserGroup("a@example.org")
	if !ok || group.ID != "g1" {
		t.Fatalf("membership lost in round trip")
	}
}
