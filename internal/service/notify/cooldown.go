package notify

import (
	"sync"
	"time"
)

// Cooldown 告警限流状态
// 以前是包级全局时间戳；改为显式注入的状态对象，依赖清晰也方便测试。
// 注意: 状态仍是单实例的，多实例部署会各自限流，可能重复告警 (可接受)。
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time // 测试注入
}

func NewCooldown() *Cooldown {
	return &Cooldown{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow 判断 key 对应的告警是否已过冷却期。
// 允许时顺手记录本次时间戳 (best-effort，不跨实例协调)。
func (c *Cooldown) Allow(key string, every time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if prev, ok := c.last[key]; ok && now.Sub(prev) < every {
		return false
	}
	c.last[key] = now
	return true
}
