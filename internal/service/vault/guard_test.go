package vault

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/pkg/errno"
	"stablecoin-core/pkg/monitor"
	"stablecoin-core/pkg/utils/lock"
)

func TestMain(m *testing.M) {
	monitor.InitBusinessMetrics()
	os.Exit(m.Run())
}

func newGuardDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.VaultBalance{}, &model.Deposit{}, &lock.Record{}))
	return db
}

// scriptedScraper 按预设顺序返回结果，耗尽后重复最后一个
type scrapeResult struct {
	balance decimal.Decimal
	err     error
}

type scriptedScraper struct {
	results []scrapeResult
	calls   int
}

func (s *scriptedScraper) GetVaultBalance(_ context.Context) (decimal.Decimal, error) {
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	r := s.results[i]
	return r.balance, r.err
}

type recordingPusher struct {
	alerts []notify.Alert
}

func (p *recordingPusher) Push(_ context.Context, alert notify.Alert) error {
	p.alerts = append(p.alerts, alert)
	return nil
}

func fastConfig() Config {
	return Config{
		LockWait:           50 * time.Millisecond,
		LockPoll:           5 * time.Millisecond,
		ScrapeRetries:      5,
		RetrySpacing:       time.Millisecond,
		ProceedWithoutLock: true,
	}
}

func newTestGuard(t *testing.T, db *gorm.DB, scraper BalanceScraper, pusher notify.Pusher, cfg Config) *Guard {
	t.Helper()
	locker := lock.NewDBLock(db, "vault_balance_check", "test-guard")
	return NewGuard(db, scraper, locker, pusher, notify.NewCooldown(), cfg)
}

func TestGetVaultBalancePersistsAndReleasesLock(t *testing.T) {
	db := newGuardDB(t)
	scraper := &scriptedScraper{results: []scrapeResult{{balance: decimal.RequireFromString("1500.25")}}}
	g := newTestGuard(t, db, scraper, &recordingPusher{}, fastConfig())
	ctx := context.Background()

	balance, err := g.GetVaultBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1500.25")))

	stored, err := g.StoredBalance(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Balance.Equal(balance))
	assert.WithinDuration(t, time.Now(), stored.FetchedAt, time.Minute)

	// 锁已释放，别人能立刻拿到
	other := lock.NewDBLock(db, "vault_balance_check", "other")
	assert.NoError(t, other.Acquire(ctx))
}

func TestZeroBalanceIsRetriedAsSentinelFailure(t *testing.T) {
	db := newGuardDB(t)
	scraper := &scriptedScraper{results: []scrapeResult{
		{balance: decimal.Zero},
		{balance: decimal.Zero},
		{balance: decimal.RequireFromString("900")},
	}}
	g := newTestGuard(t, db, scraper, &recordingPusher{}, fastConfig())

	balance, err := g.GetVaultBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("900")))
	assert.Equal(t, 3, scraper.calls)
}

func TestScrapeExhaustionRaisesTerminalAlert(t *testing.T) {
	db := newGuardDB(t)
	scraper := &scriptedScraper{results: []scrapeResult{{balance: decimal.Zero}}}
	pusher := &recordingPusher{}
	g := newTestGuard(t, db, scraper, pusher, fastConfig())

	_, err := g.GetVaultBalance(context.Background())
	assert.ErrorIs(t, err, errno.ErrVaultScrape)
	assert.Equal(t, 5, scraper.calls)

	// 终态告警与单次失败告警可区分
	require.NotEmpty(t, pusher.alerts)
	last := pusher.alerts[len(pusher.alerts)-1]
	assert.Equal(t, "Vault balance unavailable", last.Title)
	assert.Equal(t, notify.SeverityCritical, last.Severity)

	// 失败不落库
	_, err = g.StoredBalance(context.Background())
	assert.ErrorIs(t, err, errno.ErrVaultScrape)
}

func TestLockTimeoutFallsBackToLockFreeRun(t *testing.T) {
	db := newGuardDB(t)
	ctx := context.Background()

	// 另一个持有者占着锁不放
	holder := lock.NewDBLock(db, "vault_balance_check", "stuck-holder")
	require.NoError(t, holder.Ensure(ctx))
	require.NoError(t, holder.Acquire(ctx))

	scraper := &scriptedScraper{results: []scrapeResult{{balance: decimal.RequireFromString("700")}}}
	g := newTestGuard(t, db, scraper, &recordingPusher{}, fastConfig())

	// 等待窗口耗尽后降级裸跑，照样出结果
	balance, err := g.GetVaultBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("700")))

	// 降级执行不碰别人的锁
	assert.ErrorIs(t, holder.Acquire(ctx), lock.ErrLockHeld)
}

func TestLockTimeoutFailsWhenFallbackDisabled(t *testing.T) {
	db := newGuardDB(t)
	ctx := context.Background()

	holder := lock.NewDBLock(db, "vault_balance_check", "stuck-holder")
	require.NoError(t, holder.Ensure(ctx))
	require.NoError(t, holder.Acquire(ctx))

	cfg := fastConfig()
	cfg.ProceedWithoutLock = false
	scraper := &scriptedScraper{results: []scrapeResult{{balance: decimal.RequireFromString("700")}}}
	g := newTestGuard(t, db, scraper, &recordingPusher{}, cfg)

	_, err := g.GetVaultBalance(ctx)
	assert.ErrorIs(t, err, lock.ErrLockHeld)
	assert.Zero(t, scraper.calls) // 没拿到锁就不抓
}

func TestCheckReservesAlertsOnShortfall(t *testing.T) {
	db := newGuardDB(t)
	ctx := context.Background()

	// 已铸币入金共 1000，金库只有 400
	require.NoError(t, db.Create(&model.Deposit{
		ID: "dep-1", Email: "a@b.cl", Address: "0x1",
		Amount: decimal.RequireFromString("600"),
		Status: model.DepositStatusAcceptedMinted,
	}).Error)
	require.NoError(t, db.Create(&model.Deposit{
		ID: "dep-2", Email: "b@b.cl", Address: "0x2",
		Amount: decimal.RequireFromString("400"),
		Status: model.DepositStatusAcceptedMinted,
	}).Error)
	// 未铸币的不计入
	require.NoError(t, db.Create(&model.Deposit{
		ID: "dep-3", Email: "c@b.cl", Address: "0x3",
		Amount: decimal.RequireFromString("9999"),
		Status: model.DepositStatusAcceptedNotMinted,
	}).Error)

	scraper := &scriptedScraper{results: []scrapeResult{{balance: decimal.RequireFromString("400")}}}
	pusher := &recordingPusher{}
	g := newTestGuard(t, db, scraper, pusher, fastConfig())

	require.NoError(t, g.CheckReserves(ctx))
	require.Len(t, pusher.alerts, 1)
	assert.Equal(t, "Reserve shortfall", pusher.alerts[0].Title)
	assert.Equal(t, notify.SeverityCritical, pusher.alerts[0].Severity)

	// 余额覆盖时安静
	pusher.alerts = nil
	scraper.results = []scrapeResult{{balance: decimal.RequireFromString("2000")}}
	scraper.calls = 0
	require.NoError(t, g.CheckReserves(ctx))
	assert.Empty(t, pusher.alerts)
}
