package crypto_util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBlake3IsDeterministic(t *testing.T) {
	a := CalculateBlake3([]byte("proof-bytes"))
	b := CalculateBlake3([]byte("proof-bytes"))

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // 256-bit hex

	// 内容变了地址必须变
	assert.NotEqual(t, a, CalculateBlake3([]byte("proof-bytes!")))
}
