package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositStatus 充值 (法币入金) 状态机
// 状态只能单向推进: pending -> {accepted_not_minted, rejected},
// accepted_not_minted -> accepted_minted。任何状态都不会回到 pending。
type DepositStatus string

const (
	DepositStatusPending           DepositStatus = "pending"
	DepositStatusAcceptedNotMinted DepositStatus = "accepted_not_minted"
	DepositStatusAcceptedMinted    DepositStatus = "accepted_minted"
	DepositStatusRejected          DepositStatus = "rejected"
)

// BurnRequestStatus 赎回 (销毁代币换法币) 状态机
type BurnRequestStatus string

const (
	BurnStatusReceivedNotBurned BurnRequestStatus = "received_not_burned"
	BurnStatusBurned            BurnRequestStatus = "burned"
	BurnStatusRejected          BurnRequestStatus = "rejected"
)

// Deposit 法币入金记录
// 核心设计: Version 字段实现乐观锁，关闭 approve 与 mint 的并发竞态
type Deposit struct {
	ID              string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email           string          `gorm:"type:varchar(255);not null;index" json:"email"`
	Address         string          `gorm:"type:varchar(64);not null" json:"address"` // 入金对应的链上地址
	Amount          decimal.Decimal `gorm:"type:decimal(32,18);not null" json:"amount"`
	Status          DepositStatus   `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ProofImageURL   string          `gorm:"type:varchar(512)" json:"proof_image_url"`
	RejectionReason string          `gorm:"type:text" json:"rejection_reason"`
	MintTxHash      string          `gorm:"type:varchar(255)" json:"mint_tx_hash"` // 仅 accepted_minted 时非空
	ApprovedBy      string          `gorm:"type:varchar(255)" json:"approved_by"`
	Version         uint64          `gorm:"not null;default:0" json:"version"` // 乐观锁版本号
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BurnRequest 赎回申请记录
type BurnRequest struct {
	ID              string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email           string            `gorm:"type:varchar(255);not null;index" json:"email"`
	Amount          decimal.Decimal   `gorm:"type:decimal(32,18);not null" json:"amount"`
	Status          BurnRequestStatus `gorm:"type:varchar(32);not null;default:'received_not_burned';index" json:"status"`
	AccountHolder   string            `gorm:"type:varchar(255);not null" json:"account_holder"`
	RUT             string            `gorm:"type:varchar(32);not null" json:"rut"` // 持有人税号
	AccountNumber   string            `gorm:"type:varchar(64);not null" json:"account_number"`
	BankID          uint64            `gorm:"not null" json:"bank_id"`
	ProofImageURL   string            `gorm:"type:varchar(512)" json:"proof_image_url"`
	RejectionReason string            `gorm:"type:text" json:"rejection_reason"`
	BurnTxHash      string            `gorm:"type:varchar(255)" json:"burn_tx_hash"` // 仅 burned 时非空
	Version         uint64            `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ApprovalMember 审批成员 (运营人员)
// 口令即身份: 通过口令哈希匹配找到成员，返回展示名
type ApprovalMember struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null;unique" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // 不返回口令哈希
	CreatedAt    time.Time `json:"created_at"`
}

// BankInfo 赎回目标银行的参考数据
type BankInfo struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(255);not null;unique" json:"name"`
}

func (Deposit) TableName() string {
	return "deposits"
}

func (BurnRequest) TableName() string {
	return "burn_requests"
}

func (ApprovalMember) TableName() string {
	return "approval_members"
}

func (BankInfo) TableName() string {
	return "banks"
}
