package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stablecoin-core/internal/model"
	"stablecoin-core/internal/service/notify"
	"stablecoin-core/pkg/crypto_util"
	"stablecoin-core/pkg/monitor"
)

func TestMain(m *testing.M) {
	// 业务指标是全局的，测试进程里初始化一次
	monitor.InitBusinessMetrics()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// memStore 测试用对象存储，记录写入的路径
type memStore struct {
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, path string, _ string, data []byte) (string, error) {
	s.objects[path] = data
	return s.PublicURL(path), nil
}

func (s *memStore) PublicURL(path string) string {
	return "http://store.local/" + path
}

// recordingPusher 记录所有推送
type recordingPusher struct {
	alerts []notify.Alert
}

func (p *recordingPusher) Push(_ context.Context, alert notify.Alert) error {
	p.alerts = append(p.alerts, alert)
	return nil
}

// recordingEmailer 记录所有邮件
type sentEmail struct {
	Recipient string
	Template  string
	Data      map[string]string
}

type recordingEmailer struct {
	sent []sentEmail
}

func (e *recordingEmailer) Send(_ context.Context, recipient, template string, data map[string]string) error {
	e.sent = append(e.sent, sentEmail{Recipient: recipient, Template: template, Data: data})
	return nil
}

type testEnv struct {
	db       *gorm.DB
	tokens   *TokenService
	store    *memStore
	pusher   *recordingPusher
	emailer  *recordingEmailer
	deposits *DepositService
	burns    *BurnService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	store := newMemStore()
	pusher := &recordingPusher{}
	emailer := &recordingEmailer{}
	tokens := NewTokenService(db)
	chain := ChainParams{ChainID: 1, SafeAddress: "0xSafe", TokenAddress: "0xToken"}
	deposits := NewDepositService(db, tokens, store, pusher, emailer, chain, "http://localhost:8080")
	burns := NewBurnService(db, deposits, store, chain)
	return &testEnv{
		db:       db,
		tokens:   tokens,
		store:    store,
		pusher:   pusher,
		emailer:  emailer,
		deposits: deposits,
		burns:    burns,
	}
}

// seedApprover 写入一名审批成员，返回展示名
func (e *testEnv) seedApprover(t *testing.T, name, password string) {
	t.Helper()
	hash, err := crypto_util.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := e.db.Create(&model.ApprovalMember{Name: name, PasswordHash: hash}).Error; err != nil {
		t.Fatalf("seed approver: %v", err)
	}
}

func (e *testEnv) seedBank(t *testing.T, name string) uint64 {
	t.Helper()
	bank := model.BankInfo{Name: name}
	if err := e.db.Create(&bank).Error; err != nil {
		t.Fatalf("seed bank: %v", err)
	}
	return bank.ID
}

// outboxTopics 读取 outbox 中全部 topic，校验事件确实同事务落了库
func (e *testEnv) outboxTopics(t *testing.T) []string {
	t.Helper()
	var msgs []model.OutboxMessage
	if err := e.db.Order("id").Find(&msgs).Error; err != nil {
		t.Fatalf("read outbox: %v", err)
	}
	topics := make([]string, len(msgs))
	for i, m := range msgs {
		topics[i] = m.Topic
	}
	return topics
}

func (e *testEnv) reloadDeposit(t *testing.T, id string) model.Deposit {
	t.Helper()
	var dep model.Deposit
	if err := e.db.First(&dep, "id = ?", id).Error; err != nil {
		t.Fatalf("reload deposit %s: %v", id, err)
	}
	return dep
}

func (e *testEnv) reloadBurn(t *testing.T, id string) model.BurnRequest {
	t.Helper()
	var req model.BurnRequest
	if err := e.db.First(&req, "id = ?", id).Error; err != nil {
		t.Fatalf("reload burn %s: %v", id, err)
	}
	return req
}

// pngProof 合法 PNG，凭证上传测试用
func pngProof(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
