package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"stablecoin-core/internal/server"
	"stablecoin-core/internal/service"
	"stablecoin-core/internal/service/mq"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/internal/service/scanner"
	"stablecoin-core/internal/service/vault"
	"stablecoin-core/internal/storage"
	"stablecoin-core/internal/worker"

	"stablecoin-core/internal/handler"
	"stablecoin-core/pkg/config"
	"stablecoin-core/pkg/database"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/utils/lock"
)

// @title Stablecoin Reserve Core API
// @version 1.0
// @description Deposit / redemption lifecycle and reserve reconciliation API

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 2. 连接数据库
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

	// 3. 连接 Redis
	rdb, err := database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}

	// 4. 链上客户端
	ethClient, err := ethclient.Dial(config.Global.Chain.RpcUrl)
	if err != nil {
		logger.Fatal("链节点连接失败", zap.Error(err))
	}

	// 5. 基础设施: 对象存储 / 推送 / 邮件 / 冷却状态
	store := storage.NewFSStore(config.Global.Storage.BasePath, config.Global.Storage.PublicBaseURL)
	pusher := notify.NewWebhookPusher(config.Global.Notify.WebhookURL)
	emailer := worker.NewEmailClient(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	defer emailer.Close()
	cooldown := notify.NewCooldown()

	// 6. 业务服务
	chainParams := service.ChainParams{
		ChainID:      config.Global.Chain.ChainID,
		SafeAddress:  config.Global.Chain.AgentAddress,
		TokenAddress: config.Global.Chain.TokenAddress,
	}
	tokens := service.NewTokenService(db)
	deposits := service.NewDepositService(db, tokens, store, pusher, emailer, chainParams, config.Global.App.BaseURL)
	burns := service.NewBurnService(db, deposits, store, chainParams)
	banks := service.NewBankService(db)

	// 7. 链上对账扫描器
	sc, err := scanner.New(db, ethClient, deposits, pusher, cooldown, scanner.Config{
		TokenAddress:      common.HexToAddress(config.Global.Chain.TokenAddress),
		GenesisBlock:      config.Global.Chain.GenesisBlock,
		MaxBlockRange:     config.Global.Chain.MaxBlockRange,
		UnmintedThreshold: int64(config.Global.Chain.UnmintedAlertThreshold),
	})
	if err != nil {
		logger.Fatal("扫描器初始化失败", zap.Error(err))
	}

	// 8. 金库余额守卫
	hostname, _ := os.Hostname()
	locker := lock.NewDBLock(db, "vault_balance_check", hostname)
	guard := vault.NewGuard(db,
		vault.NewHTTPScraper(config.Global.Vault.BalanceURL),
		locker, pusher, cooldown,
		vault.Config{
			LockWait:           time.Duration(config.Global.Vault.LockWaitSeconds) * time.Second,
			LockPoll:           time.Duration(config.Global.Vault.LockPollSeconds) * time.Second,
			ScrapeRetries:      config.Global.Vault.ScrapeRetries,
			RetrySpacing:       time.Duration(config.Global.Vault.RetrySpacingSeconds) * time.Second,
			ProceedWithoutLock: config.Global.Vault.ProceedWithoutLock,
		})

	// 9. 消息队列 + outbox 中继
	var producer mq.Producer
	if config.Global.Redis.MQType == "kafka" {
		logger.Info("使用 Kafka 作为消息队列...")
		producer = mq.NewKafkaProducer(config.Global.Kafka.Brokers)
	} else {
		logger.Info("使用 Redis Streams 作为消息队列...")
		producer = mq.NewRedisProducer(rdb)
	}
	relayCtx, relayCancel := context.WithCancel(context.Background())
	relayService := service.NewRelayService(db, producer)
	go relayService.Start(relayCtx)

	// 10. 定时任务 (扫描 / 积压检查 / 金库核对)
	cronService := service.NewCronService(rdb, sc, guard)
	cronService.Start()

	// 11. Asynq Worker (邮件投递)
	workerServer := worker.NewServer(
		config.Global.Redis.Addr,
		config.Global.Redis.Password,
		config.Global.Redis.DB,
		10, // Concurrency
	)
	workerServer.Start()

	// 12. HTTP Router
	r := server.NewHTTPRouter(server.Handlers{
		Deposit: handler.NewDepositHandler(deposits),
		Burn:    handler.NewBurnHandler(burns),
		Vault:   handler.NewVaultHandler(guard),
		Bank:    handler.NewBankHandler(banks),
	})

	// 13. 启动应用 (阻塞)
	app := server.New(server.Config{HttpPort: config.Global.App.HttpPort}, r)
	app.OnShutdown(cronService.Stop)
	app.OnShutdown(relayCancel)
	app.OnShutdown(workerServer.Stop)
	app.Run()

	// 14. 退出后资源清理
	logger.Info("正在关闭数据库连接...")
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	rdb.Close()
	logger.Info("系统已退出")
}
