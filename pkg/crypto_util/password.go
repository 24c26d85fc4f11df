package crypto_util

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 使用 bcrypt 对口令进行加盐慢哈希。
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 校验口令是否与存储的哈希匹配。
// 历史数据使用无盐 SHA256 hex，迁移期内仍然接受 (前缀区分)，
// 新写入一律是 bcrypt ($2 开头)。
func VerifyPassword(plain, stored string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	legacy := CalculateSHA256([]byte(plain))
	return subtle.ConstantTimeCompare([]byte(legacy), []byte(stored)) == 1
}
