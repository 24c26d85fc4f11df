// Package scanner 周期性扫描链上 TokensMinted 事件，
// 与已审批未铸币的入金记录对账。
//
// 核心设计:
// 1. 单行游标 (scan_cursors) 记录扫描进度，窗口有界避免触发节点查询限制
// 2. 游标无论匹配结果如何都推进 —— 区块覆盖至少一次，事件解决不保证，
//    错过窗口的事件靠人工对账 (告警里带全部字段)
// 3. RPC 出错整轮放弃、游标不动，下个调度周期干净重试
package scanner

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/pkg/logger"
	"stablecoin-core/pkg/monitor"
)

// tokensMintedABI 稳定币合约中我们关心的唯一事件
const tokensMintedABI = `[{"anonymous":false,"inputs":[
{"indexed":true,"internalType":"address","name":"agent","type":"address"},
{"indexed":true,"internalType":"address","name":"user","type":"address"},
{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"}],
"name":"TokensMinted","type":"event"}]`

// 代币精度: 1 法币 = 10^18 最小单位
const tokenDecimals = 18

// 积压告警冷却期
const unmintedAlertCooldown = 1 * time.Hour

// ChainClient 链上数据源 (ethclient.Client 原生满足)
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// DepositStore 扫描器需要的入金操作子集
type DepositStore interface {
	ListMintable(ctx context.Context) ([]model.Deposit, error)
	MarkDepositAsMinted(ctx context.Context, id, txHash string) error
	CountUnminted(ctx context.Context) (int64, error)
}

// Config 扫描配置
type Config struct {
	TokenAddress      common.Address
	GenesisBlock      uint64 // 游标初始值 (合约部署高度)
	MaxBlockRange     uint64 // 单轮窗口上限
	UnmintedThreshold int64  // 积压告警阈值
}

type Scanner struct {
	db       *gorm.DB
	chain    ChainClient
	deposits DepositStore
	pusher   notify.Pusher
	cooldown *notify.Cooldown
	cfg      Config

	eventID common.Hash
	abi     abi.ABI
}

func New(db *gorm.DB, chain ChainClient, deposits DepositStore,
	pusher notify.Pusher, cooldown *notify.Cooldown, cfg Config) (*Scanner, error) {
	parsed, err := abi.JSON(strings.NewReader(tokensMintedABI))
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}
	return &Scanner{
		db:       db,
		chain:    chain,
		deposits: deposits,
		pusher:   pusher,
		cooldown: cooldown,
		cfg:      cfg,
		eventID:  parsed.Events["TokensMinted"].ID,
		abi:      parsed,
	}, nil
}

// mintEvent 解码后的 TokensMinted
type mintEvent struct {
	Agent  common.Address
	User   common.Address
	Amount decimal.Decimal // 已换算回法币单位
	TxHash string
	Block  uint64
}

// Run 执行一轮扫描
func (s *Scanner) Run(ctx context.Context) error {
	cursor, err := s.loadCursor(ctx)
	if err != nil {
		return err
	}

	head, err := s.chain.BlockNumber(ctx)
	if err != nil {
		// 游标不动，下轮重试
		return fmt.Errorf("query block height: %w", err)
	}

	from := cursor.LastProcessedBlock + 1
	if from > head {
		return nil // 没有新块
	}
	to := cursor.LastProcessedBlock + s.cfg.MaxBlockRange
	if to > head {
		to = head
	}

	logs, err := s.chain.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.cfg.TokenAddress},
		Topics:    [][]common.Hash{{s.eventID}},
	})
	if err != nil {
		return fmt.Errorf("filter logs [%d, %d]: %w", from, to, err)
	}

	if len(logs) > 0 {
		if err := s.reconcile(ctx, logs); err != nil {
			return err
		}
	}

	// 无论匹配结果如何都推进游标，错过的事件不重放
	if err := s.db.WithContext(ctx).Model(&model.ScanCursor{}).
		Where("id = ?", cursor.ID).
		Update("last_processed_block", to).Error; err != nil {
		return err
	}

	monitor.Business.ScannerLastBlock.Set(float64(to))
	logger.Info("scan window processed",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("events", len(logs)),
	)
	return nil
}

func (s *Scanner) reconcile(ctx context.Context, logs []types.Log) error {
	candidates, err := s.deposits.ListMintable(ctx)
	if err != nil {
		return err
	}

	for _, lg := range logs {
		ev, err := s.decode(lg)
		if err != nil {
			logger.Warn("undecodable mint event", zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
			continue
		}

		matched := false
		for i := range candidates {
			dep := &candidates[i]
			// 地址忽略大小写，金额精确相等 (无容差)
			if !strings.EqualFold(dep.Address, ev.User.Hex()) || !dep.Amount.Equal(ev.Amount) {
				continue
			}
			matched = true
			if dep.Status == model.DepositStatusAcceptedMinted {
				break // 已对账过，吸收重复事件
			}
			if err := s.deposits.MarkDepositAsMinted(ctx, dep.ID, ev.TxHash); err != nil {
				return err
			}
			dep.Status = model.DepositStatusAcceptedMinted // 同窗内不再重复匹配
			logger.Info("deposit reconciled as minted",
				zap.String("deposit_id", dep.ID),
				zap.String("tx", ev.TxHash),
			)
			break
		}

		if !matched {
			monitor.Business.ScannerUnmatchedEvents.Inc()
			s.push(ctx, notify.Alert{
				Title: "Unmatched mint event",
				Body: fmt.Sprintf("TokensMinted with no matching deposit.\nuser: %s\namount: %s\ntx: %s\nblock: %d\nManual reconciliation required.",
					ev.User.Hex(), ev.Amount.String(), ev.TxHash, ev.Block),
				Severity: notify.SeverityWarning,
			})
		}
	}
	return nil
}

func (s *Scanner) decode(lg types.Log) (*mintEvent, error) {
	if len(lg.Topics) != 3 {
		return nil, fmt.Errorf("unexpected topic count %d", len(lg.Topics))
	}
	values, err := s.abi.Unpack("TokensMinted", lg.Data)
	if err != nil {
		return nil, err
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected amount type %T", values[0])
	}
	return &mintEvent{
		Agent:  common.BytesToAddress(lg.Topics[1].Bytes()),
		User:   common.BytesToAddress(lg.Topics[2].Bytes()),
		Amount: decimal.NewFromBigInt(amount, -tokenDecimals),
		TxHash: lg.TxHash.Hex(),
		Block:  lg.BlockNumber,
	}, nil
}

// CheckUnminted 次级检查: 已审批未铸币的积压量，超过阈值发冷却告警
func (s *Scanner) CheckUnminted(ctx context.Context) error {
	count, err := s.deposits.CountUnminted(ctx)
	if err != nil {
		return err
	}
	monitor.Business.UnmintedDeposits.Set(float64(count))

	if count < s.cfg.UnmintedThreshold {
		return nil
	}

	severity := notify.SeverityWarning
	if count >= 2*s.cfg.UnmintedThreshold {
		severity = notify.SeverityCritical
	}
	if s.cooldown.Allow("unminted_backlog", unmintedAlertCooldown) {
		s.push(ctx, notify.Alert{
			Title:    "Unminted deposit backlog",
			Body:     fmt.Sprintf("%d approved deposits are still waiting for on-chain mint confirmation.", count),
			Severity: severity,
		})
	}
	return nil
}

func (s *Scanner) loadCursor(ctx context.Context) (*model.ScanCursor, error) {
	cursor := model.ScanCursor{ID: 1, LastProcessedBlock: s.cfg.GenesisBlock}
	if err := s.db.WithContext(ctx).Where("id = ?", 1).FirstOrCreate(&cursor).Error; err != nil {
		return nil, err
	}
	return &cursor, nil
}

func (s *Scanner) push(ctx context.Context, alert notify.Alert) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.Push(ctx, alert); err != nil {
		logger.Warn("push alert failed", zap.String("title", alert.Title), zap.Error(err))
	}
}
