package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 批处理进程 (chain-scanner / vault-checker) 不经过 HTTP 层的 Init，
// 指标初始化必须可以独立调用，且重复调用不会向 Prometheus 重复注册。
func TestInitBusinessMetricsIsIdempotent(t *testing.T) {
	InitBusinessMetrics()
	require.NotNil(t, Business)
	first := Business

	// 第二次调用不 panic (promauto 重复注册会 panic)，实例不变
	InitBusinessMetrics()
	assert.Same(t, first, Business)

	// 所有指标都可直接使用
	Business.ScannerLastBlock.Set(42)
	Business.VaultBalance.Set(1000)
	Business.VaultScrapeFailures.Inc()
	Business.DepositRegisteredTotal.Inc()
}
