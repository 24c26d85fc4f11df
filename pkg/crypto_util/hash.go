package crypto_util

import (
	"crypto/sha256"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// CalculateSHA256 计算输入的 SHA256 哈希值。
// 仅用于校验迁移前的历史口令记录，新口令一律走 bcrypt。
func CalculateSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CalculateBlake3 计算输入的 Blake3 哈希值。
// 凭证对象的内容寻址路径用它生成。
func CalculateBlake3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
