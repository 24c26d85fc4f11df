// Package vault 金库余额守卫。
// 外部余额抓取又贵又脆，用库里的分布式锁串行化访问；
// 拿不到锁超过等待窗口就降级无锁执行 —— 显式的可用性优先策略。
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/pkg/errno"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/monitor"
	"stablecoin-core/pkg/utils/lock"
)

// BalanceScraper 不透明的外部余额来源 (生产环境是银行页面抓取)
type BalanceScraper interface {
	GetVaultBalance(ctx context.Context) (decimal.Decimal, error)
}

// Locker 守卫需要的锁操作子集 (lock.DBLock 满足)
type Locker interface {
	Ensure(ctx context.Context) error
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Config 守卫参数，全部是固定常量语义，从配置读入
type Config struct {
	LockWait           time.Duration // 锁等待窗口 (默认 45s)
	LockPoll           time.Duration // 轮询间隔 (默认 1s)
	ScrapeRetries      int           // 零余额重试次数 (默认 5)
	RetrySpacing       time.Duration // 重试间隔 (默认 30s)
	ProceedWithoutLock bool          // 超时后是否降级无锁执行
}

// Guard 金库余额守卫
type Guard struct {
	db       *gorm.DB
	scraper  BalanceScraper
	locker   Locker
	pusher   notify.Pusher
	cooldown *notify.Cooldown
	cfg      Config
}

func NewGuard(db *gorm.DB, scraper BalanceScraper, locker Locker,
	pusher notify.Pusher, cooldown *notify.Cooldown, cfg Config) *Guard {
	return &Guard{
		db:       db,
		scraper:  scraper,
		locker:   locker,
		pusher:   pusher,
		cooldown: cooldown,
		cfg:      cfg,
	}
}

// GetVaultBalance 加锁抓取金库余额并持久化
func (g *Guard) GetVaultBalance(ctx context.Context) (decimal.Decimal, error) {
	held, err := g.acquireWithWait(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if held {
		// 无论抓取成败都释放; 释放失败只记日志，锁靠人工或 TTL 策略兜底
		defer func() {
			if err := g.locker.Release(context.Background()); err != nil {
				logger.Error("release vault lock failed", zap.Error(err))
			}
		}()
	}

	balance, err := g.scrapeWithRetry(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	record := model.VaultBalance{ID: 1, Balance: balance, FetchedAt: time.Now()}
	if err := g.db.WithContext(ctx).Save(&record).Error; err != nil {
		return decimal.Zero, err
	}

	bal, _ := balance.Float64()
	monitor.Business.VaultBalance.Set(bal)
	return balance, nil
}

// StoredBalance 只读路径: 返回最近持久化的余额，不加锁不抓取
func (g *Guard) StoredBalance(ctx context.Context) (*model.VaultBalance, error) {
	var record model.VaultBalance
	err := g.db.WithContext(ctx).First(&record, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrVaultScrape
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CheckReserves 储备完整性检查: 金库余额必须覆盖全部已铸币入金
func (g *Guard) CheckReserves(ctx context.Context) error {
	balance, err := g.GetVaultBalance(ctx)
	if err != nil {
		return err
	}

	type row struct {
		Total decimal.Decimal
	}
	var minted row
	if err := g.db.WithContext(ctx).Model(&model.Deposit{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", model.DepositStatusAcceptedMinted).
		Scan(&minted).Error; err != nil {
		return err
	}

	if balance.LessThan(minted.Total) {
		g.push(ctx, notify.Alert{
			Title: "Reserve shortfall",
			Body: fmt.Sprintf("Vault balance %s is below total minted deposits %s.",
				balance.String(), minted.Total.String()),
			Severity: notify.SeverityCritical,
		})
	}
	return nil
}

// acquireWithWait 在等待窗口内轮询拿锁。
// 返回 (是否持有锁, error)。窗口耗尽时按配置降级为无锁执行。
func (g *Guard) acquireWithWait(ctx context.Context) (bool, error) {
	if err := g.locker.Ensure(ctx); err != nil {
		return false, err
	}

	deadline := time.Now().Add(g.cfg.LockWait)
	for {
		err := g.locker.Acquire(ctx)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, lock.ErrLockHeld) {
			return false, err
		}

		monitor.Business.VaultLockContention.Inc()
		if time.Now().After(deadline) {
			if !g.cfg.ProceedWithoutLock {
				return false, lock.ErrLockHeld
			}
			// 可用性优先: 等不到锁就裸跑，接受并发抓取的风险
			logger.Warn("vault lock wait exhausted, proceeding without lock")
			return false, nil
		}

		select {
		case <-time.After(g.cfg.LockPoll):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// scrapeWithRetry 抓取余额。恰好为零视为哨兵失败 (页面没加载出来)，
// 固定间隔重试，每次失败发冷却告警，耗尽后发终态告警。
func (g *Guard) scrapeWithRetry(ctx context.Context) (decimal.Decimal, error) {
	attempts := g.cfg.ScrapeRetries
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		balance, err := g.scraper.GetVaultBalance(ctx)
		if err == nil && !balance.IsZero() {
			return balance, nil
		}

		monitor.Business.VaultScrapeFailures.Inc()
		if err != nil {
			logger.Error("vault scrape failed", zap.Int("attempt", attempt), zap.Error(err))
		} else {
			logger.Warn("vault scrape returned zero sentinel", zap.Int("attempt", attempt))
		}

		if g.cooldown.Allow("vault_scrape_attempt", g.cfg.RetrySpacing) {
			g.push(ctx, notify.Alert{
				Title:    "Vault balance scrape failed",
				Body:     fmt.Sprintf("Attempt %d/%d did not produce a valid balance.", attempt, attempts),
				Severity: notify.SeverityWarning,
			})
		}

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(g.cfg.RetrySpacing):
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	}

	// 终态告警与单次失败可区分 (标题与级别都不同)
	g.push(ctx, notify.Alert{
		Title:    "Vault balance unavailable",
		Body:     fmt.Sprintf("All %d scrape attempts exhausted without a valid balance.", attempts),
		Severity: notify.SeverityCritical,
	})
	return decimal.Zero, errno.ErrVaultScrape
}

func (g *Guard) push(ctx context.Context, alert notify.Alert) {
	if g.pusher == nil {
		return
	}
	if err := g.pusher.Push(ctx, alert); err != nil {
		logger.Warn("push alert failed", zap.String("title", alert.Title), zap.Error(err))
	}
}
