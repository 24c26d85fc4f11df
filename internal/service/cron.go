package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stablecoin-core/internal/service/scanner"
	"stablecoin-core/internal/service/vault"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/utils/lock"
)

// CronService 进程内调度: 链上对账扫描与金库余额核对。
// 每个任务跑之前先抢 Redis 锁，多实例部署时同一轮只有一个节点执行。
type CronService struct {
	cron    *cron.Cron
	redis   *redis.Client
	scanner *scanner.Scanner
	vault   *vault.Guard
}

func NewCronService(rdb *redis.Client, sc *scanner.Scanner, guard *vault.Guard) *CronService {
	return &CronService{
		cron:    cron.New(),
		redis:   rdb,
		scanner: sc,
		vault:   guard,
	}
}

func (s *CronService) Start() {
	// 注册任务
	_, _ = s.cron.AddFunc("@every 1m", s.runChainScan)
	_, _ = s.cron.AddFunc("@every 5m", s.runUnmintedCheck)
	_, _ = s.cron.AddFunc("@every 30m", s.runVaultCheck)

	s.cron.Start()
	logger.Info("Cron Service started")
}

func (s *CronService) Stop() {
	s.cron.Stop()
	logger.Info("Cron Service stopped")
}

// withNodeLock 抢到 Redis 锁才执行 fn，抢不到说明别的节点在跑，跳过
func (s *CronService) withNodeLock(key string, ttl time.Duration, fn func(ctx context.Context) error) {
	ctx := context.Background()
	locker := lock.NewRedisLock(s.redis)
	locked, err := locker.Acquire(ctx, key, ttl)
	if err != nil || !locked {
		logger.Debug("cron job skipped, lock not acquired", zap.String("key", key))
		return
	}
	defer locker.Release(ctx, key)

	if err := fn(ctx); err != nil {
		logger.Error("cron job failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CronService) runChainScan() {
	s.withNodeLock("cron:lock:chain_scan", 10*time.Minute, s.scanner.Run)
}

func (s *CronService) runUnmintedCheck() {
	s.withNodeLock("cron:lock:unminted_check", time.Minute, s.scanner.CheckUnminted)
}

func (s *CronService) runVaultCheck() {
	s.withNodeLock("cron:lock:vault_check", 10*time.Minute, s.vault.CheckReserves)
}
