package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stablecoin-core/internal/event"
	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/internal/storage"
	"stablecoin-core/pkg/errno"
	"stablecoin-core/pkg/monitor"
	"stablecoin-core/pkg/multisig"
)

// BankDetails 赎回打款目标账户
type BankDetails struct {
	AccountHolder string
	RUT           string
	AccountNumber string
	BankID        uint64
}

// BurnService 赎回生命周期状态机
type BurnService struct {
	db       *gorm.DB
	deposits *DepositService // 复用凭证归一化/通知管道
	store    storage.ObjectStore
	chain    ChainParams
}

func NewBurnService(db *gorm.DB, deposits *DepositService, store storage.ObjectStore, chain ChainParams) *BurnService {
	return &BurnService{
		db:       db,
		deposits: deposits,
		store:    store,
		chain:    chain,
	}
}

// RequestBurn 用户发起赎回 (received_not_burned)，同时落盘 burn 交易批次
func (s *BurnService) RequestBurn(ctx context.Context, email string, amount decimal.Decimal, bank BankDetails) (*model.BurnRequest, error) {
	if email == "" || bank.AccountHolder == "" || bank.AccountNumber == "" || bank.RUT == "" {
		return nil, errno.ErrValidation
	}
	if !amount.IsPositive() {
		return nil, errno.ErrAmountNotPositive
	}

	var bankInfo model.BankInfo
	err := s.db.WithContext(ctx).First(&bankInfo, "id = ?", bank.BankID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrBankNotFound
	}
	if err != nil {
		return nil, err
	}

	req := model.BurnRequest{
		ID:            uuid.NewString(),
		Email:         email,
		Amount:        amount,
		Status:        model.BurnStatusReceivedNotBurned,
		AccountHolder: bank.AccountHolder,
		RUT:           bank.RUT,
		AccountNumber: bank.AccountNumber,
		BankID:        bank.BankID,
	}

	batch := multisig.NewRedeemBatch(s.chain.ChainID, s.chain.SafeAddress, s.chain.TokenAddress, amount)
	raw, err := batch.JSON()
	if err != nil {
		return nil, err
	}
	artifactPath := fmt.Sprintf("transactions/redeem-%s.json", req.ID)
	if _, err := s.store.Put(ctx, artifactPath, "application/json", raw); err != nil {
		return nil, errno.ErrExternalService
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&req).Error; err != nil {
			return err
		}
		return model.CreateOutboxMessage(tx, event.TopicBurns, event.BurnRequestedEvent{
			BurnRequestID: req.ID,
			Email:         req.Email,
			Amount:        req.Amount.String(),
			BankID:        req.BankID,
		})
	})
	if err != nil {
		return nil, err
	}

	monitor.Business.BurnRequestedTotal.Inc()
	s.deposits.notifyPush(ctx, notify.Alert{
		Title:    "New burn request",
		Body:     fmt.Sprintf("%s requested redemption of %s to %s (%s)", email, amount.String(), bank.AccountHolder, bankInfo.Name),
		Severity: notify.SeverityInfo,
	})
	s.deposits.notifyEmail(ctx, email, notify.EmailBurnRequested, map[string]string{
		"burn_request_id": req.ID,
		"amount":          amount.String(),
	})

	return &req, nil
}

// ApproveBurnRequest 运营确认销毁完成: received_not_burned -> burned
func (s *BurnService) ApproveBurnRequest(ctx context.Context, id, txHash string) error {
	if txHash == "" {
		return errno.ErrValidation
	}
	req, err := s.getBurnRequest(ctx, id)
	if err != nil {
		return err
	}
	return s.completeBurn(ctx, req, txHash)
}

// RejectBurnRequest 驳回赎回: received_not_burned -> rejected
func (s *BurnService) RejectBurnRequest(ctx context.Context, id, reason string) error {
	req, err := s.getBurnRequest(ctx, id)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&model.BurnRequest{}).
		Where("id = ? AND status = ? AND version = ?", req.ID, model.BurnStatusReceivedNotBurned, req.Version).
		Updates(map[string]interface{}{
			"status":           model.BurnStatusRejected,
			"rejection_reason": reason,
			"version":          req.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errno.ErrStateConflict
	}

	s.deposits.notifyEmail(ctx, req.Email, notify.EmailBurnRejected, map[string]string{
		"burn_request_id": req.ID,
		"reason":          reason,
	})
	return nil
}

// UploadBurnProof 上传销毁凭证并完成赎回
// 凭证 (销毁交易截图/PDF) 归一化落盘，附带的交易哈希使状态转为 burned，
// 维持 "burn_tx_hash 非空当且仅当 burned" 的不变量。
func (s *BurnService) UploadBurnProof(ctx context.Context, id, txHash string, file []byte) (string, error) {
	if txHash == "" {
		return "", errno.ErrValidation
	}
	req, err := s.getBurnRequest(ctx, id)
	if err != nil {
		return "", err
	}

	proofURL, err := s.deposits.storeProof(ctx, fmt.Sprintf("proofs/burns/%s", req.ID), file)
	if err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Model(&model.BurnRequest{}).
		Where("id = ?", req.ID).
		Update("proof_image_url", proofURL).Error; err != nil {
		return "", err
	}

	if err := s.completeBurn(ctx, req, txHash); err != nil {
		return "", err
	}
	return proofURL, nil
}

// GetBurnRequest 按 ID 查询
func (s *BurnService) GetBurnRequest(ctx context.Context, id string) (*model.BurnRequest, error) {
	return s.getBurnRequest(ctx, id)
}

func (s *BurnService) completeBurn(ctx context.Context, req *model.BurnRequest, txHash string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.BurnRequest{}).
			Where("id = ? AND status = ? AND version = ?", req.ID, model.BurnStatusReceivedNotBurned, req.Version).
			Updates(map[string]interface{}{
				"status":       model.BurnStatusBurned,
				"burn_tx_hash": txHash,
				"version":      req.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errno.ErrStateConflict
		}
		return model.CreateOutboxMessage(tx, event.TopicBurns, event.BurnCompletedEvent{
			BurnRequestID: req.ID,
			BurnTxHash:    txHash,
			Amount:        req.Amount.String(),
		})
	})
	if err != nil {
		return err
	}

	monitor.Business.BurnCompletedTotal.Inc()
	s.deposits.notifyEmail(ctx, req.Email, notify.EmailBurnCompleted, map[string]string{
		"burn_request_id": req.ID,
		"tx_hash":         txHash,
	})
	return nil
}

func (s *BurnService) getBurnRequest(ctx context.Context, id string) (*model.BurnRequest, error) {
	var req model.BurnRequest
	err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrBurnNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
