// Package router 装配 HTTP 路由与中间件
package router

import (
	"fmt"
	"strings"

	"github.com/copanier-next/internal/cache"
	"github.com/copanier-next/internal/config"
	"github.com/copanier-next/internal/http/handlers"
	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := handlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cp"
	}
	redisClient := cache.Client()
	magicLinkRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:magic_link", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/magic-link",
				RateLimitMiddleware(redisClient, magicLinkRule, KeyByIPAndJSONField("email")),
				handler.RequestMagicLink,
			)
			auth.GET("/login", handler.Login)
		}

		// 登录后的接口
		api := apiV1.Group("")
		api.Use(AuthMiddleware(c))
		{
			api.GET("/me", handler.Me)

			api.GET("/groups", handler.ListGroups)
			api.POST("/groups", handler.CreateGroup)
			api.POST("/groups/:group/join", handler.JoinGroup)
			api.POST("/groups/leave", handler.LeaveGroup)

			deliveries := api.Group("/deliveries")
			{
				deliveries.GET("", handler.ListDeliveries)
				deliveries.POST("", handler.CreateDelivery)
				deliveries.GET("/:id", handler.GetDelivery)
				deliveries.PUT("/:id", handler.UpdateDelivery)
				deliveries.POST("/:id/archive", handler.ArchiveDelivery)
				deliveries.POST("/:id/unarchive", handler.UnarchiveDelivery)
				deliveries.POST("/:id/handover", handler.HandOverDelivery)
				deliveries.POST("/:id/validate-prices", handler.ValidatePrices)

				deliveries.PUT("/:id/products", handler.UpsertProduct)
				deliveries.DELETE("/:id/products/:ref", handler.DeleteProduct)
				deliveries.PUT("/:id/producers", handler.UpsertProducer)
				deliveries.DELETE("/:id/producers/:producer", handler.DeleteProducer)
				deliveries.PUT("/:id/shipping/:producer", handler.SetShipping)

				deliveries.POST("/:id/orders", handler.PlaceOrder)
				deliveries.GET("/:id/orders/:buyer", handler.GetOrder)
				deliveries.PUT("/:id/orders/:buyer/paid", handler.SetOrderPaid)
				deliveries.POST("/:id/adjust/:ref", handler.AdjustProduct)

				deliveries.GET("/:id/settlement", handler.GetSettlement)
				deliveries.POST("/:id/import", handler.ImportProducts)
				deliveries.GET("/:id/reports/:kind", handler.DownloadReport)
			}
		}
	}

	return r
}
