package request

import "github.com/shopspring/decimal"

// CreateBurnRequest 赎回申请请求参数
type CreateBurnRequest struct {
	Email         string          `json:"email" binding:"required,email"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	AccountHolder string          `json:"account_holder" binding:"required"`
	RUT           string          `json:"rut" binding:"required"`
	AccountNumber string          `json:"account_number" binding:"required"`
	BankID        uint64          `json:"bank_id" binding:"required"`
}

// ApproveBurnRequest 销毁确认请求
type ApproveBurnRequest struct {
	TxHash string `json:"tx_hash" binding:"required"`
}

// RejectBurnRequest 赎回驳回请求
type RejectBurnRequest struct {
	Reason string `json:"reason" binding:"required"`
}
