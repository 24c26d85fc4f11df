package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VaultBalance 最近一次成功抓取的金库余额 (单行)
// 只读路径直接返回这条记录，不触发抓取也不加锁。
type VaultBalance struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	Balance   decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"balance"`
	FetchedAt time.Time       `gorm:"not null" json:"fetched_at"`
}

func (VaultBalance) TableName() string {
	return "vault_balances"
}
