package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"stablecoin-core/internal/service"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/internal/service/scanner"
	"stablecoin-core/internal/storage"
	"stablecoin-core/internal/worker"
	"stablecoin-core/pkg/config"
	"stablecoin-core/pkg/database"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/monitor"
)

// chain-scanner: 一次性批处理入口。跑一轮链上对账扫描 + 积压检查后退出，
// 失败返回非零，由外部调度器 (cron/k8s CronJob) 负责重跑。
func main() {
	config.Init()
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 扫描器会更新业务指标，批处理进程没有 HTTP 层替我们初始化
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

	ethClient, err := ethclient.Dial(config.Global.Chain.RpcUrl)
	if err != nil {
		logger.Fatal("链节点连接失败", zap.Error(err))
	}

	store := storage.NewFSStore(config.Global.Storage.BasePath, config.Global.Storage.PublicBaseURL)
	pusher := notify.NewWebhookPusher(config.Global.Notify.WebhookURL)
	emailer := worker.NewEmailClient(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
	defer emailer.Close()

	chainParams := service.ChainParams{
		ChainID:      config.Global.Chain.ChainID,
		SafeAddress:  config.Global.Chain.AgentAddress,
		TokenAddress: config.Global.Chain.TokenAddress,
	}
	tokens := service.NewTokenService(db)
	deposits := service.NewDepositService(db, tokens, store, pusher, emailer, chainParams, config.Global.App.BaseURL)

	sc, err := scanner.New(db, ethClient, deposits, pusher, notify.NewCooldown(), scanner.Config{
		TokenAddress:      common.HexToAddress(config.Global.Chain.TokenAddress),
		GenesisBlock:      config.Global.Chain.GenesisBlock,
		MaxBlockRange:     config.Global.Chain.MaxBlockRange,
		UnmintedThreshold: int64(config.Global.Chain.UnmintedAlertThreshold),
	})
	if err != nil {
		logger.Fatal("扫描器初始化失败", zap.Error(err))
	}

	ctx := context.Background()
	exitCode := 0
	if err := sc.Run(ctx); err != nil {
		logger.Error("scan run failed", zap.Error(err))
		exitCode = 1
	}
	if err := sc.CheckUnminted(ctx); err != nil {
		logger.Error("unminted check failed", zap.Error(err))
		exitCode = 1
	}
	os.Exit(exitCode)
}
