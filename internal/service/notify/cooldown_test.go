package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownAllowsThenGates(t *testing.T) {
	current := time.Unix(1000, 0)
	c := NewCooldown()
	c.now = func() time.Time { return current }

	assert.True(t, c.Allow("vault_zero", time.Minute))
	assert.False(t, c.Allow("vault_zero", time.Minute))

	// 不同 key 互不影响
	assert.True(t, c.Allow("unminted", time.Minute))

	current = current.Add(61 * time.Second)
	assert.True(t, c.Allow("vault_zero", time.Minute))
}
