package provider

import (
	"path/filepath"

	"github.com/copanier-next/internal/auth"
	"github.com/copanier-next/internal/cache"
	"github.com/copanier-next/internal/config"
	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/queue"
	"github.com/copanier-next/internal/service"
	"github.com/copanier-next/internal/storage"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Stores
	DeliveryStore *storage.DeliveryStore
	GroupStore    *storage.GroupStore

	// Services
	TokenIssuer       *auth.TokenIssuer
	EmailService      *service.EmailService
	AuthService       *service.AuthService
	GroupService      *service.GroupService
	DeliveryService   *service.DeliveryService
	OrderService      *service.OrderService
	SettlementService *service.SettlementService
	ImportService     *service.ImportService
	ReportService     *service.ReportService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化存储
	c.initStores()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initStores() {
	root := c.Config.Data.Root
	if c.Config.Data.DemoMode {
		root = filepath.Join(root, "demo")
		logger.Infow("provider_demo_mode", "data_root", root)
	}
	c.DeliveryStore = storage.NewDeliveryStore(root)
	c.GroupStore = storage.NewGroupStore(root)
}

func (c *Container) initServices() {
	staff := c.Config.Staff

	c.TokenIssuer = auth.NewTokenIssuer(c.Config.JWT.SecretKey, c.Config.JWT.ExpireDays)
	c.EmailService = service.NewEmailService(&c.Config.Email, c.Config.Site)
	c.AuthService = service.NewAuthService(c.TokenIssuer, c.EmailService)
	c.GroupService = service.NewGroupService(c.GroupStore)
	c.DeliveryService = service.NewDeliveryService(c.DeliveryStore, staff, c.QueueClient)
	c.OrderService = service.NewOrderService(c.DeliveryStore, c.GroupStore, staff, c.QueueClient)
	c.SettlementService = service.NewSettlementService(c.DeliveryStore, c.GroupStore)
	c.ImportService = service.NewImportService(c.DeliveryStore, staff)
	c.ReportService = service.NewReportService(c.DeliveryStore)
}
