package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"stablecoin-core/internal/service/notify"
	"stablecoin-core/internal/service/vault"
	"stablecoin-core/pkg/config"
	"stablecoin-core/pkg/database"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/monitor"
	"stablecoin-core/pkg/utils/lock"
)

// vault-checker: 一次性批处理入口。抓取金库余额并与已铸币总额核对，
// 失败返回非零，由外部调度器负责重跑。
func main() {
	config.Init()
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 守卫会更新业务指标，批处理进程没有 HTTP 层替我们初始化
	monitor.InitBusinessMetrics()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		config.Global.DB.Host,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
		config.Global.DB.Port,
	)
	db, err := database.ConnectPostgres(dsn)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	hostname, _ := os.Hostname()
	guard := vault.NewGuard(db,
		vault.NewHTTPScraper(config.Global.Vault.BalanceURL),
		lock.NewDBLock(db, "vault_balance_check", hostname),
		notify.NewWebhookPusher(config.Global.Notify.WebhookURL),
		notify.NewCooldown(),
		vault.Config{
			LockWait:           time.Duration(config.Global.Vault.LockWaitSeconds) * time.Second,
			LockPoll:           time.Duration(config.Global.Vault.LockPollSeconds) * time.Second,
			ScrapeRetries:      config.Global.Vault.ScrapeRetries,
			RetrySpacing:       time.Duration(config.Global.Vault.RetrySpacingSeconds) * time.Second,
			ProceedWithoutLock: config.Global.Vault.ProceedWithoutLock,
		})

	if err := guard.CheckReserves(context.Background()); err != nil {
		logger.Error("vault check failed", zap.Error(err))
		os.Exit(1)
	}
}
