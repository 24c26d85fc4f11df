package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"stablecoin-core/internal/handler"
	"stablecoin-core/pkg/monitor"
)

// Handlers 路由依赖的业务 handler 集合
type Handlers struct {
	Deposit *handler.DepositHandler
	Burn    *handler.BurnHandler
	Vault   *handler.VaultHandler
	Bank    *handler.BankHandler
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware()) // 监控埋点

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // 暴露给 Prometheus
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		deposits := api.Group("/deposits")
		{
			deposits.POST("", h.Deposit.Register)
			deposits.POST("/:id/approve", h.Deposit.Approve)
			deposits.POST("/:id/reject", h.Deposit.Reject)
			deposits.POST("/:id/minted", h.Deposit.MarkMinted)
			deposits.POST("/:id/proof", h.Deposit.UploadProof)
		}

		burns := api.Group("/burns")
		{
			burns.POST("", h.Burn.Create)
			burns.POST("/:id/approve", h.Burn.Approve)
			burns.POST("/:id/reject", h.Burn.Reject)
			burns.POST("/:id/proof", h.Burn.UploadProof)
		}

		vault := api.Group("/vault")
		{
			vault.GET("/balance", h.Vault.GetBalance)
			vault.GET("/balance/stored", h.Vault.GetStoredBalance)
		}

		api.GET("/banks", h.Bank.List)
	}

	return r
}
