package monitor

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	DepositRegisteredTotal prometheus.Counter
	DepositMintedTotal     prometheus.Counter
	DepositRejectedTotal   prometheus.Counter
	BurnRequestedTotal     prometheus.Counter
	BurnCompletedTotal     prometheus.Counter
	ScannerLastBlock       prometheus.Gauge
	ScannerUnmatchedEvents prometheus.Counter
	UnmintedDeposits       prometheus.Gauge
	VaultBalance           prometheus.Gauge
	VaultLockContention    prometheus.Counter
	VaultScrapeFailures    prometheus.Counter
}

// Global Metrics Instance
var Business *BusinessMetrics

var businessOnce sync.Once

// InitBusinessMetrics 初始化业务指标
// 幂等: HTTP 服务与批处理入口都会调用，promauto 注册只能发生一次
func InitBusinessMetrics() {
	businessOnce.Do(initBusinessMetrics)
}

func initBusinessMetrics() {
	Business = &BusinessMetrics{
		DepositRegisteredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_deposit_registered_total",
			Help: "The total number of registered deposits",
		}),
		DepositMintedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_deposit_minted_total",
			Help: "The total number of deposits reconciled as minted",
		}),
		DepositRejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_deposit_rejected_total",
			Help: "The total number of rejected deposits",
		}),
		BurnRequestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_burn_requested_total",
			Help: "The total number of burn requests",
		}),
		BurnCompletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_burn_completed_total",
			Help: "The total number of completed burns",
		}),
		ScannerLastBlock: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "reserve_scanner_last_processed_block",
			Help: "Last block processed by the reconciliation scanner",
		}),
		ScannerUnmatchedEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_scanner_unmatched_events_total",
			Help: "Mint events that matched no deposit and need manual reconciliation",
		}),
		UnmintedDeposits: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "reserve_unminted_deposits",
			Help: "Deposits accepted but not yet observed as minted on-chain",
		}),
		VaultBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "reserve_vault_balance",
			Help: "Last scraped vault balance",
		}),
		VaultLockContention: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_vault_lock_contention_total",
			Help: "Times the vault scrape lock was already held",
		}),
		VaultScrapeFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reserve_vault_scrape_failures_total",
			Help: "Vault scrape attempts that returned the zero sentinel or an error",
		}),
	}
}
