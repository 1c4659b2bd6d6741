// 往数据目录写入一份演示数据：一场在途配送、两个供应商、
// 两个买家团体和几份订单，方便本地联调和演示模式。
package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/copanier-next/internal/config"
	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())

	root := cfg.Data.Root
	if cfg.Data.DemoMode {
		root = filepath.Join(root, "demo")
	}
	deliveryStore := storage.NewDeliveryStore(root)
	groupStore := storage.NewGroupStore(root)

	groups := models.NewGroups()
	_ = groups.AddGroup(models.Group{ID: "famille-durand", Name: "Famille Durand", Members: []string{"alice@example.org"}})
	_ = groups.AddGroup(models.Group{ID: "coloc-du-canal", Name: "Coloc du canal", Members: []string{"bob@example.org", "carol@example.org"}})
	if err := groupStore.Persist(groups); err != nil {
		log.Fatalf("写入团体失败: %v", err)
	}

	now := time.Now()
	delivery := &models.Delivery{
		Name:        "Marché fermier de septembre",
		Contact:     "alice@example.org",
		Where:       "Halle du village",
		FromDate:    now.AddDate(0, 0, 14),
		ToDate:      now.AddDate(0, 0, 14),
		OrderBefore: now.AddDate(0, 0, 7),
		Producers: map[string]models.Producer{
			"ferme-du-pre": {
				ID:           "ferme-du-pre",
				Name:         "Ferme du Pré",
				Referent:     "alice@example.org",
				ReferentName: "Alice",
			},
			"laiterie-bio": {
				ID:           "laiterie-bio",
				Name:         "Laiterie Bio",
				Referent:     "bob@example.org",
				ReferentName: "Bob",
			},
		},
		Products: []models.Product{
			{Ref: "lait", Name: "Lait entier", Price: models.NewMoneyFromFloat(1.50), Unit: "1L", Producer: "laiterie-bio", LastUpdate: now},
			{Ref: "yaourt", Name: "Yaourt nature", Price: models.NewMoneyFromFloat(0.80), Unit: "125g", Packing: 6, Producer: "laiterie-bio", LastUpdate: now},
			{Ref: "carottes", Name: "Carottes", Price: models.NewMoneyFromFloat(2.20), Unit: "1kg", Producer: "ferme-du-pre", LastUpdate: now},
		},
		Orders: map[string]models.Order{
			"famille-durand": {
				Products: map[string]models.ProductOrder{
					"lait":   {Wanted: 4},
					"yaourt": {Wanted: 5},
				},
				PhoneNumber: "0600000001",
			},
			"coloc-du-canal": {
				Products: map[string]models.ProductOrder{
					"lait":     {Wanted: 1},
					"carottes": {Wanted: 3},
				},
				PhoneNumber: "0600000002",
			},
		},
		Shipping: map[string]models.Money{
			"laiterie-bio": models.NewMoneyFromFloat(10),
		},
	}
	if err := deliveryStore.Persist(delivery); err != nil {
		log.Fatalf("写入配送失败: %v", err)
	}

	log.Printf("演示数据已写入 %s（配送 id: %s）", root, delivery.ID)
}
