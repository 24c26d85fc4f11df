package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stablecoin-core/internal/event"
	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/internal/storage"
	"stablecoin-core/pkg/crypto_util"
	"stablecoin-core/pkg/errno"
	"stablecoin-core/pkg/imaging"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/monitor"
	"stablecoin-core/pkg/multisig"
)

// ChainParams 生成交易批次所需的链上参数
type ChainParams struct {
	ChainID      int64
	SafeAddress  string
	TokenAddress string
}

// DepositService 入金生命周期状态机
// 所有状态转移都在这里，别处不允许改 status。
// 核心设计: 条件更新 + Version 乐观锁，并发下最多一个转移生效。
type DepositService struct {
	db      *gorm.DB
	tokens  *TokenService
	store   storage.ObjectStore
	pusher  notify.Pusher
	emailer notify.Emailer
	chain   ChainParams
	baseURL string
}

func NewDepositService(db *gorm.DB, tokens *TokenService, store storage.ObjectStore,
	pusher notify.Pusher, emailer notify.Emailer, chain ChainParams, baseURL string) *DepositService {
	return &DepositService{
		db:      db,
		tokens:  tokens,
		store:   store,
		pusher:  pusher,
		emailer: emailer,
		chain:   chain,
		baseURL: baseURL,
	}
}

// RegisterDeposit 用户登记一笔法币入金 (pending)，无链上副作用
func (s *DepositService) RegisterDeposit(ctx context.Context, email, address string, amount decimal.Decimal) (*model.Deposit, error) {
	if email == "" || address == "" {
		return nil, errno.ErrValidation
	}
	if !amount.IsPositive() {
		return nil, errno.ErrAmountNotPositive
	}

	dep := model.Deposit{
		ID:      uuid.NewString(),
		Email:   email,
		Address: address,
		Amount:  amount,
		Status:  model.DepositStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&dep).Error; err != nil {
			return err
		}
		return model.CreateOutboxMessage(tx, event.TopicDeposits, event.DepositRegisteredEvent{
			DepositID: dep.ID,
			Email:     dep.Email,
			Address:   dep.Address,
			Amount:    dep.Amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	monitor.Business.DepositRegisteredTotal.Inc()
	s.notifyPush(ctx, notify.Alert{
		Title:    "New deposit registered",
		Body:     fmt.Sprintf("%s registered a deposit of %s", email, amount.String()),
		Severity: notify.SeverityInfo,
	})
	s.notifyEmail(ctx, email, notify.EmailDepositRegistered, map[string]string{
		"deposit_id": dep.ID,
		"amount":     amount.String(),
	})

	return &dep, nil
}

// ApproveDeposit 运营审批通过: pending -> accepted_not_minted
// 前置: 口令命中某个审批成员; 令牌绑定本记录且未过期。
// 效果: 状态转移、approved_by、令牌消费、mint 批次落盘、通知。
func (s *DepositService) ApproveDeposit(ctx context.Context, id, tokenValue, password string) (string, error) {
	approver, err := s.authenticateApprover(ctx, password)
	if err != nil {
		return "", err
	}

	dep, err := s.getDeposit(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.tokens.ValidateApprovalToken(ctx, id, tokenValue); err != nil {
		return "", err
	}

	// 先写 mint 批次再提交状态: 批次丢了可以重导，状态错了没法撤
	batch := multisig.NewMintBatch(s.chain.ChainID, s.chain.SafeAddress, s.chain.TokenAddress, dep.Address, dep.Amount)
	raw, err := batch.JSON()
	if err != nil {
		return "", err
	}
	artifactPath := fmt.Sprintf("transactions/mint-%s.json", dep.ID)
	if _, err := s.store.Put(ctx, artifactPath, "application/json", raw); err != nil {
		logger.Error("persist mint artifact failed", zap.String("deposit_id", dep.ID), zap.Error(err))
		return "", errno.ErrExternalService
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Deposit{}).
			Where("id = ? AND status = ? AND version = ?", dep.ID, model.DepositStatusPending, dep.Version).
			Updates(map[string]interface{}{
				"status":      model.DepositStatusAcceptedNotMinted,
				"approved_by": approver,
				"version":     dep.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errno.ErrStateConflict
		}
		return model.CreateOutboxMessage(tx, event.TopicDeposits, event.DepositApprovedEvent{
			DepositID:  dep.ID,
			ApprovedBy: approver,
			Amount:     dep.Amount.String(),
		})
	})
	if err != nil {
		return "", err
	}

	// 令牌消费是转移成功后的独立步骤
	if err := s.tokens.DeleteApprovalToken(ctx, tokenValue); err != nil {
		logger.Error("consume approval token failed", zap.String("deposit_id", dep.ID), zap.Error(err))
	}

	s.notifyPush(ctx, notify.Alert{
		Title:    "Deposit approved",
		Body:     fmt.Sprintf("Deposit %s (%s) approved by %s", dep.ID, dep.Amount.String(), approver),
		Severity: notify.SeverityInfo,
	})
	s.notifyEmail(ctx, dep.Email, notify.EmailDepositApproved, map[string]string{
		"deposit_id": dep.ID,
		"amount":     dep.Amount.String(),
	})

	return approver, nil
}

// RejectDeposit 运营驳回: pending -> rejected，同样消费令牌
func (s *DepositService) RejectDeposit(ctx context.Context, id, reason, tokenValue, password string) (string, error) {
	approver, err := s.authenticateApprover(ctx, password)
	if err != nil {
		return "", err
	}

	dep, err := s.getDeposit(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.tokens.ValidateApprovalToken(ctx, id, tokenValue); err != nil {
		return "", err
	}

	res := s.db.WithContext(ctx).Model(&model.Deposit{}).
		Where("id = ? AND status = ? AND version = ?", dep.ID, model.DepositStatusPending, dep.Version).
		Updates(map[string]interface{}{
			"status":           model.DepositStatusRejected,
			"rejection_reason": reason,
			"approved_by":      approver,
			"version":          dep.Version + 1,
		})
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", errno.ErrStateConflict
	}

	if err := s.tokens.DeleteApprovalToken(ctx, tokenValue); err != nil {
		logger.Error("consume approval token failed", zap.String("deposit_id", dep.ID), zap.Error(err))
	}

	monitor.Business.DepositRejectedTotal.Inc()
	s.notifyEmail(ctx, dep.Email, notify.EmailDepositRejected, map[string]string{
		"deposit_id": dep.ID,
		"reason":     reason,
	})

	return approver, nil
}

// MarkDepositAsMinted 对账扫描确认链上铸币: -> accepted_minted
// 注意: 没有状态前置检查，pending 也能直接标记。这是既有行为，
// 调用方 (扫描器) 只会对 accepted_not_minted 的记录调用。
func (s *DepositService) MarkDepositAsMinted(ctx context.Context, id, txHash string) error {
	return s.MarkMultipleDepositsAsMinted(ctx, []MintedItem{{DepositID: id, TxHash: txHash}})
}

// MintedItem 批量确认条目
type MintedItem struct {
	DepositID string
	TxHash    string
}

// MarkMultipleDepositsAsMinted 批量确认，整批一个事务 (原子多行写)。
// 邮件和指标在事务提交后处理，回滚不会放出半截通知。
func (s *DepositService) MarkMultipleDepositsAsMinted(ctx context.Context, items []MintedItem) error {
	if len(items) == 0 {
		return nil
	}

	minted := make([]model.Deposit, 0, len(items))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		minted = minted[:0]
		for _, item := range items {
			dep, err := s.markMintedTx(tx, item.DepositID, item.TxHash)
			if err != nil {
				return err
			}
			minted = append(minted, *dep)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, dep := range minted {
		monitor.Business.DepositMintedTotal.Inc()
		s.notifyEmail(ctx, dep.Email, notify.EmailDepositMinted, map[string]string{
			"deposit_id": dep.ID,
			"tx_hash":    dep.MintTxHash,
		})
	}
	return nil
}

func (s *DepositService) markMintedTx(tx *gorm.DB, id, txHash string) (*model.Deposit, error) {
	var dep model.Deposit
	err := tx.First(&dep, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrDepositNotFound
	}
	if err != nil {
		return nil, err
	}

	res := tx.Model(&model.Deposit{}).
		Where("id = ? AND version = ?", dep.ID, dep.Version).
		Updates(map[string]interface{}{
			"status":       model.DepositStatusAcceptedMinted,
			"mint_tx_hash": txHash,
			"version":      dep.Version + 1,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errno.ErrStateConflict
	}

	if err := model.CreateOutboxMessage(tx, event.TopicDeposits, event.DepositMintedEvent{
		DepositID:  dep.ID,
		MintTxHash: txHash,
		Amount:     dep.Amount.String(),
	}); err != nil {
		return nil, err
	}

	dep.Status = model.DepositStatusAcceptedMinted
	dep.MintTxHash = txHash
	return &dep, nil
}

// UploadProofOfDeposit 上传入金凭证
// 归一化为 PNG、内容寻址落盘、更新 proof_image_url; 状态不变。
// 额外签发一个审批令牌，并推送带凭证和审批链接的待办告警。
func (s *DepositService) UploadProofOfDeposit(ctx context.Context, id string, file []byte) (string, error) {
	dep, err := s.getDeposit(ctx, id)
	if err != nil {
		return "", err
	}

	proofURL, err := s.storeProof(ctx, fmt.Sprintf("proofs/deposits/%s", dep.ID), file)
	if err != nil {
		return "", err
	}

	if err := s.db.WithContext(ctx).Model(&model.Deposit{}).
		Where("id = ?", dep.ID).
		Update("proof_image_url", proofURL).Error; err != nil {
		return "", err
	}

	token, err := s.tokens.GenerateApprovalToken(ctx, dep.ID)
	if err != nil {
		return "", err
	}

	approvalURL := fmt.Sprintf("%s/approvals/deposits/%s?token=%s", s.baseURL, dep.ID, token.Token)
	s.notifyPush(ctx, notify.Alert{
		Title:    "Deposit proof uploaded — action required",
		Body:     fmt.Sprintf("Deposit %s (%s) awaits review.\nProof: %s\nApprove: %s", dep.ID, dep.Amount.String(), proofURL, approvalURL),
		Severity: notify.SeverityWarning,
		ImageURL: proofURL,
	})

	return proofURL, nil
}

// CountUnminted 已审批未铸币的记录数 (对账看板与告警用)
func (s *DepositService) CountUnminted(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Deposit{}).
		Where("status = ?", model.DepositStatusAcceptedNotMinted).
		Count(&count).Error
	return count, err
}

// ListMintable 列出待与链上事件匹配的记录 (已审批，含已铸币的用于吸收重复事件)
func (s *DepositService) ListMintable(ctx context.Context) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.DepositStatus{model.DepositStatusAcceptedNotMinted, model.DepositStatusAcceptedMinted}).
		Find(&deposits).Error
	return deposits, err
}

// GetDeposit 按 ID 查询
func (s *DepositService) GetDeposit(ctx context.Context, id string) (*model.Deposit, error) {
	return s.getDeposit(ctx, id)
}

func (s *DepositService) getDeposit(ctx context.Context, id string) (*model.Deposit, error) {
	var dep model.Deposit
	err := s.db.WithContext(ctx).First(&dep, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errno.ErrDepositNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dep, nil
}

// authenticateApprover 口令换成员名。任何不匹配都返回同一个授权错误，
// 不区分"成员不存在"与"口令错误"。
func (s *DepositService) authenticateApprover(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", errno.ErrUnauthorized
	}

	var members []model.ApprovalMember
	if err := s.db.WithContext(ctx).Find(&members).Error; err != nil {
		return "", err
	}
	for _, m := range members {
		if crypto_util.VerifyPassword(password, m.PasswordHash) {
			return m.Name, nil
		}
	}
	return "", errno.ErrUnauthorized
}

// storeProof 归一化并内容寻址地写入凭证
func (s *DepositService) storeProof(ctx context.Context, prefix string, file []byte) (string, error) {
	normalized, err := imaging.NormalizeToPNG(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return "", errno.ErrUnsupportedProof
		}
		return "", err
	}

	path := fmt.Sprintf("%s/%s.png", prefix, crypto_util.CalculateBlake3(normalized))
	url, err := s.store.Put(ctx, path, "image/png", normalized)
	if err != nil {
		logger.Error("persist proof failed", zap.String("path", path), zap.Error(err))
		return "", errno.ErrExternalService
	}
	return url, nil
}

func (s *DepositService) notifyPush(ctx context.Context, alert notify.Alert) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(ctx, alert); err != nil {
		logger.Warn("push notification failed", zap.String("title", alert.Title), zap.Error(err))
	}
}

func (s *DepositService) notifyEmail(ctx context.Context, recipient, template string, data map[string]string) {
	if s.emailer == nil {
		return
	}
	if err := s.emailer.Send(ctx, recipient, template, data); err != nil {
		logger.Warn("email enqueue failed", zap.String("template", template), zap.Error(err))
	}
}
