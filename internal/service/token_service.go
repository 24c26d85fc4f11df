package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"stablecoin-core/internal/model"
	"stablecoin-core/pkg/errno"
	"stablecoin-core/pkg/safe_random"
)

const (
	// 审批令牌 256-bit 随机数，hex 后 64 字符
	approvalTokenBytes = 32
	// 固定 24 小时有效期，墙钟时间，不做时钟偏移补偿
	approvalTokenTTL = 24 * time.Hour
)

// TokenService 审批令牌管理
// 令牌把一次审批动作绑定到一条入金记录: 单次使用、限时、不可猜测。
type TokenService struct {
	db *gorm.DB
}

func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db}
}

// GenerateApprovalToken 为入金记录签发新令牌
// 同一记录可以存在多个有效令牌 (每次上传凭证都会签发一个)，
// 消费时只删除被用掉的那一个。
func (s *TokenService) GenerateApprovalToken(ctx context.Context, depositID string) (*model.ApprovalToken, error) {
	value, err := safe_random.GenerateRandomHexString(approvalTokenBytes)
	if err != nil {
		return nil, err
	}

	token := model.ApprovalToken{
		Token:     value,
		DepositID: depositID,
		ExpiresAt: time.Now().Add(approvalTokenTTL),
	}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// ValidateApprovalToken 校验令牌: 必须存在、绑定同一条记录、未过期。
// 校验不删除令牌 —— 删除是调用方在状态转移成功后的显式独立步骤，
// 这样可以先校验再提交 (validate-before-commit)。
func (s *TokenService) ValidateApprovalToken(ctx context.Context, depositID string, tokenValue string) error {
	var token model.ApprovalToken
	err := s.db.WithContext(ctx).First(&token, "token = ?", tokenValue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errno.ErrTokenInvalid
	}
	if err != nil {
		return err
	}

	// 绑定了别的记录的令牌即使有效也必须失败，防止跨记录复用
	if token.DepositID != depositID {
		return errno.ErrTokenMismatch
	}
	if time.Now().After(token.ExpiresAt) {
		return errno.ErrTokenExpired
	}
	return nil
}

// DeleteApprovalToken 消费令牌，不可逆
func (s *TokenService) DeleteApprovalToken(ctx context.Context, tokenValue string) error {
	return s.db.WithContext(ctx).Delete(&model.ApprovalToken{}, "token = ?", tokenValue).Error
}
