// Package multisig 生成多签钱包 (Safe Transaction Builder) 可导入的
// 交易批次 JSON。字段名是下游导入格式的一部分，不能改动。
package multisig

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	batchVersion     = "1.0"
	txBuilderVersion = "1.16.5"
	// 代币使用 18 位精度，法币金额 1:1 换算成最小单位
	tokenDecimals = 18
)

type Batch struct {
	Version      string        `json:"version"`
	ChainID      string        `json:"chainId"`
	CreatedAt    int64         `json:"createdAt"`
	Meta         Meta          `json:"meta"`
	Transactions []Transaction `json:"transactions"`
}

type Meta struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	TxBuilderVersion       string `json:"txBuilderVersion"`
	CreatedFromSafeAddress string `json:"createdFromSafeAddress"`
}

type Transaction struct {
	To                   string            `json:"to"`
	Value                string            `json:"value"`
	Data                 *string           `json:"data"`
	ContractMethod       Method            `json:"contractMethod"`
	ContractInputsValues map[string]string `json:"contractInputsValues"`
}

type Method struct {
	Inputs  []Input `json:"inputs"`
	Name    string  `json:"name"`
	Payable bool    `json:"payable"`
}

type Input struct {
	InternalType string `json:"internalType"`
	Name         string `json:"name"`
	Type         string `json:"type"`
}

// BaseUnits 将 1:1 法币金额精确换算为 10^18 最小单位的十进制字符串。
func BaseUnits(amount decimal.Decimal) string {
	return amount.Shift(tokenDecimals).BigInt().String()
}

// NewMintBatch 构造 mint(address,uint256) 批次
func NewMintBatch(chainID int64, safeAddress, tokenAddress, recipient string, amount decimal.Decimal) *Batch {
	return &Batch{
		Version:   batchVersion,
		ChainID:   decimal.NewFromInt(chainID).String(),
		CreatedAt: time.Now().UnixMilli(),
		Meta: Meta{
			Name:                   "Mint tokens",
			Description:            "Mint stablecoin against an approved fiat deposit",
			TxBuilderVersion:       txBuilderVersion,
			CreatedFromSafeAddress: safeAddress,
		},
		Transactions: []Transaction{
			{
				To:    tokenAddress,
				Value: "0",
				ContractMethod: Method{
					Name: "mint",
					Inputs: []Input{
						{InternalType: "address", Name: "user", Type: "address"},
						{InternalType: "uint256", Name: "amount", Type: "uint256"},
					},
				},
				ContractInputsValues: map[string]string{
					"user":   recipient,
					"amount": BaseUnits(amount),
				},
			},
		},
	}
}

// NewRedeemBatch 构造 burn(uint256) 批次 (用户赎回后销毁等量代币)
func NewRedeemBatch(chainID int64, safeAddress, tokenAddress string, amount decimal.Decimal) *Batch {
	return &Batch{
		Version:   batchVersion,
		ChainID:   decimal.NewFromInt(chainID).String(),
		CreatedAt: time.Now().UnixMilli(),
		Meta: Meta{
			Name:                   "Burn tokens",
			Description:            "Burn stablecoin for a fiat redemption",
			TxBuilderVersion:       txBuilderVersion,
			CreatedFromSafeAddress: safeAddress,
		},
		Transactions: []Transaction{
			{
				To:    tokenAddress,
				Value: "0",
				ContractMethod: Method{
					Name: "burn",
					Inputs: []Input{
						{InternalType: "uint256", Name: "amount", Type: "uint256"},
					},
				},
				ContractInputsValues: map[string]string{
					"amount": BaseUnits(amount),
				},
			},
		},
	}
}

// JSON 序列化为下游可导入的 JSON 文档
func (b *Batch) JSON() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}
