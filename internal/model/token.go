package model

import "time"

// ApprovalToken 单次使用、限时的审批令牌
// 以 token 值 (256-bit 随机 hex) 作为主键存储，而不是以 deposit_id 为键:
// 令牌不可猜测，也可以针对单个令牌做吊销 (删除即吊销)。
type ApprovalToken struct {
	Token     string    `gorm:"type:varchar(64);primaryKey" json:"token"`
	DepositID string    `gorm:"type:varchar(36);not null;index" json:"deposit_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (ApprovalToken) TableName() string {
	return "approval_tokens"
}
