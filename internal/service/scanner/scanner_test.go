package scanner

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/pkg/monitor"
)

func TestMain(m *testing.M) {
	monitor.InitBusinessMetrics()
	os.Exit(m.Run())
}

var (
	tokenAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	agentAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

// fakeChain 可编排的链数据源
type fakeChain struct {
	head    uint64
	headErr error
	logs    []types.Log
	logsErr error

	lastQuery ethereum.FilterQuery
}

func (f *fakeChain) BlockNumber(_ context.Context) (uint64, error) {
	return f.head, f.headErr
}

func (f *fakeChain) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.lastQuery = q
	return f.logs, f.logsErr
}

// fakeDeposits 内存版 DepositStore
type fakeDeposits struct {
	deposits []model.Deposit
	marked   map[string]string // deposit id -> tx hash
}

func newFakeDeposits(deposits ...model.Deposit) *fakeDeposits {
	return &fakeDeposits{deposits: deposits, marked: make(map[string]string)}
}

func (f *fakeDeposits) ListMintable(_ context.Context) ([]model.Deposit, error) {
	out := make([]model.Deposit, len(f.deposits))
	copy(out, f.deposits)
	return out, nil
}

func (f *fakeDeposits) MarkDepositAsMinted(_ context.Context, id, txHash string) error {
	f.marked[id] = txHash
	for i := range f.deposits {
		if f.deposits[i].ID == id {
			f.deposits[i].Status = model.DepositStatusAcceptedMinted
			f.deposits[i].MintTxHash = txHash
		}
	}
	return nil
}

func (f *fakeDeposits) CountUnminted(_ context.Context) (int64, error) {
	var n int64
	for _, d := range f.deposits {
		if d.Status == model.DepositStatusAcceptedNotMinted {
			n++
		}
	}
	return n, nil
}

type recordingPusher struct {
	alerts []notify.Alert
}

func (p *recordingPusher) Push(_ context.Context, alert notify.Alert) error {
	p.alerts = append(p.alerts, alert)
	return nil
}

func newCursorDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ScanCursor{}))
	return db
}

func newTestScanner(t *testing.T, db *gorm.DB, chain ChainClient, deposits DepositStore,
	pusher notify.Pusher, cfg Config) *Scanner {
	t.Helper()
	if cfg.TokenAddress == (common.Address{}) {
		cfg.TokenAddress = tokenAddr
	}
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = 1000
	}
	if cfg.UnmintedThreshold == 0 {
		cfg.UnmintedThreshold = 3
	}
	s, err := New(db, chain, deposits, pusher, notify.NewCooldown(), cfg)
	require.NoError(t, err)
	return s
}

// mintLog 构造一条 TokensMinted 日志 (amount 为法币单位)
func mintLog(s *Scanner, user common.Address, amount string, txHash string, block uint64) types.Log {
	raw := decimal.RequireFromString(amount).Shift(tokenDecimals).BigInt()
	return types.Log{
		Address:     tokenAddr,
		Topics:      []common.Hash{s.eventID, common.BytesToHash(agentAddr.Bytes()), common.BytesToHash(user.Bytes())},
		Data:        common.LeftPadBytes(raw.Bytes(), 32),
		TxHash:      common.HexToHash(txHash),
		BlockNumber: block,
	}
}

func cursorBlock(t *testing.T, db *gorm.DB) uint64 {
	t.Helper()
	var cursor model.ScanCursor
	require.NoError(t, db.First(&cursor, "id = ?", 1).Error)
	return cursor.LastProcessedBlock
}

func TestRunMatchesCaseInsensitiveAddressAndExactAmount(t *testing.T) {
	db := newCursorDB(t)
	user := common.HexToAddress("0xAbCdEF0123456789abcdef0123456789ABCDEF01")
	deposits := newFakeDeposits(model.Deposit{
		ID: "dep-1",
		// 存的是小写地址，事件里是 checksum 大小写混合
		Address: "0xabcdef0123456789abcdef0123456789abcdef01",
		Amount:  decimal.RequireFromString("100"),
		Status:  model.DepositStatusAcceptedNotMinted,
	})
	pusher := &recordingPusher{}
	chain := &fakeChain{head: 120}
	s := newTestScanner(t, db, chain, deposits, pusher, Config{GenesisBlock: 100})
	txHash := "0x00000000000000000000000000000000000000000000000000000000000000aa"
	chain.logs = []types.Log{mintLog(s, user, "100", txHash, 110)}

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, txHash, deposits.marked["dep-1"])
	assert.Empty(t, pusher.alerts)
	assert.Equal(t, uint64(120), cursorBlock(t, db))
}

func TestRunAmountMismatchRaisesUnmatchedAlert(t *testing.T) {
	db := newCursorDB(t)
	user := common.HexToAddress("0xAbCdEF0123456789abcdef0123456789ABCDEF01")
	deposits := newFakeDeposits(model.Deposit{
		ID:      "dep-1",
		Address: user.Hex(),
		Amount:  decimal.RequireFromString("100"),
		Status:  model.DepositStatusAcceptedNotMinted,
	})
	pusher := &recordingPusher{}
	chain := &fakeChain{head: 120}
	s := newTestScanner(t, db, chain, deposits, pusher, Config{GenesisBlock: 100})
	// 金额差一分钱也不匹配，无容差
	chain.logs = []types.Log{mintLog(s, user, "100.01", "0xbb", 111)}

	require.NoError(t, s.Run(context.Background()))

	assert.Empty(t, deposits.marked)
	require.Len(t, pusher.alerts, 1)
	assert.Equal(t, notify.SeverityWarning, pusher.alerts[0].Severity)
	assert.Contains(t, pusher.alerts[0].Body, "100.01")
	assert.Contains(t, pusher.alerts[0].Body, user.Hex())

	// 游标照样推进，事件不重放
	assert.Equal(t, uint64(120), cursorBlock(t, db))
}

func TestRunRPCErrorLeavesCursorUntouched(t *testing.T) {
	db := newCursorDB(t)
	deposits := newFakeDeposits()
	chain := &fakeChain{headErr: errors.New("rpc down")}
	s := newTestScanner(t, db, chain, deposits, &recordingPusher{}, Config{GenesisBlock: 100})

	require.Error(t, s.Run(context.Background()))
	assert.Equal(t, uint64(100), cursorBlock(t, db))

	// FilterLogs 失败同样不动游标
	chain.headErr = nil
	chain.head = 150
	chain.logsErr = errors.New("filter failed")
	require.Error(t, s.Run(context.Background()))
	assert.Equal(t, uint64(100), cursorBlock(t, db))
}

func TestRunWindowIsBounded(t *testing.T) {
	db := newCursorDB(t)
	chain := &fakeChain{head: 10_000}
	s := newTestScanner(t, db, chain, newFakeDeposits(), &recordingPusher{},
		Config{GenesisBlock: 100, MaxBlockRange: 500})

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, uint64(101), chain.lastQuery.FromBlock.Uint64())
	assert.Equal(t, uint64(600), chain.lastQuery.ToBlock.Uint64())
	assert.Equal(t, []common.Address{tokenAddr}, chain.lastQuery.Addresses)
	assert.Equal(t, uint64(600), cursorBlock(t, db))

	// 下一轮从上次窗口末尾接着扫
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(601), chain.lastQuery.FromBlock.Uint64())
	assert.Equal(t, uint64(1100), cursorBlock(t, db))
}

func TestRunNoNewBlocksIsNoop(t *testing.T) {
	db := newCursorDB(t)
	chain := &fakeChain{head: 100}
	s := newTestScanner(t, db, chain, newFakeDeposits(), &recordingPusher{}, Config{GenesisBlock: 100})

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(100), cursorBlock(t, db))
	assert.Nil(t, chain.lastQuery.FromBlock) // 没发过查询
}

func TestRunAbsorbsDuplicateEventForMintedDeposit(t *testing.T) {
	db := newCursorDB(t)
	user := common.HexToAddress("0xAbCdEF0123456789abcdef0123456789ABCDEF01")
	deposits := newFakeDeposits(model.Deposit{
		ID:         "dep-1",
		Address:    user.Hex(),
		Amount:     decimal.RequireFromString("100"),
		Status:     model.DepositStatusAcceptedMinted,
		MintTxHash: "0xold",
	})
	pusher := &recordingPusher{}
	chain := &fakeChain{head: 120}
	s := newTestScanner(t, db, chain, deposits, pusher, Config{GenesisBlock: 100})
	chain.logs = []types.Log{mintLog(s, user, "100", "0xcc", 115)}

	require.NoError(t, s.Run(context.Background()))

	// 已对账过: 不再标记，也不告警
	assert.Empty(t, deposits.marked)
	assert.Empty(t, pusher.alerts)
}

func TestRunMatchesEachDepositOncePerWindow(t *testing.T) {
	db := newCursorDB(t)
	user := common.HexToAddress("0xAbCdEF0123456789abcdef0123456789ABCDEF01")
	deposits := newFakeDeposits(model.Deposit{
		ID:      "dep-1",
		Address: user.Hex(),
		Amount:  decimal.RequireFromString("100"),
		Status:  model.DepositStatusAcceptedNotMinted,
	})
	pusher := &recordingPusher{}
	chain := &fakeChain{head: 120}
	s := newTestScanner(t, db, chain, deposits, pusher, Config{GenesisBlock: 100})
	// 同窗内两条等额事件: 第一条匹配，第二条没有候选可配，必须告警
	chain.logs = []types.Log{
		mintLog(s, user, "100", "0x01", 110),
		mintLog(s, user, "100", "0x02", 111),
	}

	require.NoError(t, s.Run(context.Background()))

	assert.Len(t, deposits.marked, 1)
	require.Len(t, pusher.alerts, 1)
	assert.Contains(t, pusher.alerts[0].Title, "Unmatched")
}

func TestCheckUnmintedEscalation(t *testing.T) {
	db := newCursorDB(t)
	backlog := make([]model.Deposit, 0, 6)
	for i := 0; i < 6; i++ {
		backlog = append(backlog, model.Deposit{
			ID:     string(rune('a' + i)),
			Status: model.DepositStatusAcceptedNotMinted,
			Amount: decimal.NewFromInt(1),
		})
	}
	deposits := newFakeDeposits(backlog...)
	pusher := &recordingPusher{}
	s := newTestScanner(t, db, &fakeChain{}, deposits, pusher, Config{GenesisBlock: 0, UnmintedThreshold: 3})

	// 6 >= 2*3: 直接升级为 critical
	require.NoError(t, s.CheckUnminted(context.Background()))
	require.Len(t, pusher.alerts, 1)
	assert.Equal(t, notify.SeverityCritical, pusher.alerts[0].Severity)

	// 冷却期内不重复告警
	require.NoError(t, s.CheckUnminted(context.Background()))
	assert.Len(t, pusher.alerts, 1)
}

func TestCheckUnmintedBelowThresholdIsSilent(t *testing.T) {
	db := newCursorDB(t)
	deposits := newFakeDeposits(model.Deposit{
		ID:     "dep-1",
		Status: model.DepositStatusAcceptedNotMinted,
		Amount: decimal.NewFromInt(1),
	})
	pusher := &recordingPusher{}
	s := newTestScanner(t, db, &fakeChain{}, deposits, pusher, Config{UnmintedThreshold: 3})

	require.NoError(t, s.CheckUnminted(context.Background()))
	assert.Empty(t, pusher.alerts)
}
