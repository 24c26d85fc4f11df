package service

import (
	"context"

	"gorm.io/gorm"

	"stablecoin-core/internal/model"
)

// BankService 赎回目标银行参考数据
type BankService struct {
	db *gorm.DB
}

func NewBankService(db *gorm.DB) *BankService {
	return &BankService{db: db}
}

// ListBanks 全量列表 (数据量小，不分页)
func (s *BankService) ListBanks(ctx context.Context) ([]model.BankInfo, error) {
	var banks []model.BankInfo
	err := s.db.WithContext(ctx).Order("name").Find(&banks).Error
	return banks, err
}

// CreateBank 录入银行 (reservectl 用)
func (s *BankService) CreateBank(ctx context.Context, name string) (*model.BankInfo, error) {
	bank := model.BankInfo{Name: name}
	if err := s.db.WithContext(ctx).Create(&bank).Error; err != nil {
		return nil, err
	}
	return &bank, nil
}
