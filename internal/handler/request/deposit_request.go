package request

import "github.com/shopspring/decimal"

// RegisterDepositRequest 入金登记请求参数
type RegisterDepositRequest struct {
	Email   string          `json:"email" binding:"required,email"`
	Address string          `json:"address" binding:"required"` // 铸币目标链上地址
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// ApproveDepositRequest 入金审批请求
type ApproveDepositRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RejectDepositRequest 入金驳回请求
type RejectDepositRequest struct {
	Reason   string `json:"reason" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// MarkMintedRequest 手工标记铸币完成 (对账兜底)
type MarkMintedRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}
