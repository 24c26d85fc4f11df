package event

// 生命周期事件，经 Outbox 投递给下游记账消费者。

// Topic 常量
const (
	TopicDeposits = "reserve_events_deposit"
	TopicBurns    = "reserve_events_burn"
)

// DepositRegisteredEvent 入金登记事件
type DepositRegisteredEvent struct {
	DepositID string `json:"deposit_id"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Amount    string `json:"amount"` // Decimal string
}

// DepositApprovedEvent 入金审批通过事件
type DepositApprovedEvent struct {
	DepositID  string `json:"deposit_id"`
	ApprovedBy string `json:"approved_by"`
	Amount     string `json:"amount"`
}

// DepositMintedEvent 链上铸币确认事件
type DepositMintedEvent struct {
	DepositID  string `json:"deposit_id"`
	MintTxHash string `json:"mint_tx_hash"`
	Amount     string `json:"amount"`
}

// BurnRequestedEvent 赎回申请事件
type BurnRequestedEvent struct {
	BurnRequestID string `json:"burn_request_id"`
	Email         string `json:"email"`
	Amount        string `json:"amount"`
	BankID        uint64 `json:"bank_id"`
}

// BurnCompletedEvent 销毁完成事件
type BurnCompletedEvent struct {
	BurnRequestID string `json:"burn_request_id"`
	BurnTxHash    string `json:"burn_tx_hash"`
	Amount        string `json:"amount"`
}
