package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stablecoin-core/internal/event"
	"stablecoin-core/internal/model"
	"stablecoin-core/pkg/errno"
)

func testBankDetails(bankID uint64) BankDetails {
	return BankDetails{
		AccountHolder: "Juan Pérez",
		RUT:           "12.345.678-9",
		AccountNumber: "000123456789",
		BankID:        bankID,
	}
}

func TestRequestBurnValidation(t *testing.T) {
	env := newTestEnv(t)
	bankID := env.seedBank(t, "Banco Estado")
	ctx := context.Background()

	_, err := env.burns.RequestBurn(ctx, "", decimal.NewFromInt(10), testBankDetails(bankID))
	assert.ErrorIs(t, err, errno.ErrValidation)

	details := testBankDetails(bankID)
	details.AccountNumber = ""
	_, err = env.burns.RequestBurn(ctx, "a@b.cl", decimal.NewFromInt(10), details)
	assert.ErrorIs(t, err, errno.ErrValidation)

	_, err = env.burns.RequestBurn(ctx, "a@b.cl", decimal.Zero, testBankDetails(bankID))
	assert.ErrorIs(t, err, errno.ErrAmountNotPositive)

	_, err = env.burns.RequestBurn(ctx, "a@b.cl", decimal.NewFromInt(10), testBankDetails(9999))
	assert.ErrorIs(t, err, errno.ErrBankNotFound)
}

func TestRequestBurnPersistsWithRedeemArtifact(t *testing.T) {
	env := newTestEnv(t)
	bankID := env.seedBank(t, "Banco Estado")
	ctx := context.Background()

	req, err := env.burns.RequestBurn(ctx, "a@b.cl", decimal.RequireFromString("42.5"), testBankDetails(bankID))
	require.NoError(t, err)

	stored := env.reloadBurn(t, req.ID)
	assert.Equal(t, model.BurnStatusReceivedNotBurned, stored.Status)
	assert.Empty(t, stored.BurnTxHash)
	assert.Equal(t, bankID, stored.BankID)

	raw, ok := env.store.objects["transactions/redeem-"+req.ID+".json"]
	require.True(t, ok)
	assert.Contains(t, string(raw), "42500000000000000000") // 42.5 * 10^18

	assert.Equal(t, []string{event.TopicBurns}, env.outboxTopics(t))
}

func TestApproveBurnRequiresTxHash(t *testing.T) {
	env := newTestEnv(t)
	bankID := env.seedBank(t, "Banco Estado")
	ctx := context.Background()

	req, err := env.burns.RequestBurn(ctx, "a@b.cl", decimal.NewFromInt(10), testBankDetails(bankID))
	require.NoError(t, err)

	// burn_tx_hash 非空当且仅当 burned: 没有哈希就不能转移
	assert.ErrorIs(t, env.burns.ApproveBurnRequest(ctx, req.ID, ""), errno.ErrValidation)
	assert.Equal(t, model.BurnStatusReceivedNotBurned, env.reloadBurn(t, req.ID).Status)
}

func TestApproveBurnCompletesOnce(t *testing.T) {
	env := newTestEnv(t)
	bankID := env.seedBank(t, "Banco Estado")
	ctx := context.Background()

	req, err := env.burns.RequestBurn(ctx, "a@b.cl", decimal.NewFromInt(10), testBankDetails(bankID))
	require.NoError(t, err)

	require.NoError(t, env.burns.ApproveBurnRequest(ctx, req.ID, "0xburn"))

	stored := env.reloadBurn(t, req.ID)
	assert.Equal(t, model.BurnStatusBurned, stored.Status)
	assert.Equal(t, "0xburn", stored.BurnTxHash)

	// 终态，重复确认与驳回都冲突
	assert.ErrorIs(t, env.burns.ApproveBurnRequest(ctx, req.ID, "0xother"), errno.ErrStateConflict)
	assert.ErrorIs(t, env.burns.RejectBurnRequest(ctx, req.ID, "too late"), errno.ErrStateConflict)
	assert.Equal(t, "0xburn", env.reloadBurn(t, req.ID).BurnTxHash)
}

func TestRejectBurnRecordsReason(t *testing.T) {
	env := newTestEnv(t)
	bankID := env.seedBank(t, "Banco Estado")
	ctx := context.Background()

	req, err := env.burns.RequestBurn(ctx, "a@b.cl", decimal.NewFromInt(10), testBankDetails(bankID))
	require.NoError(t, err)

	require.NoError(t, env.burns.RejectBurnRequest(ctx, req.ID, "bank details mismatch"))

	stored := env.reloadBurn(t, req.ID)
	assert.Equal(t, model.BurnStatusRejected, stored.Status)
	assert.Equal(t, "bank details mismatch", stored.RejectionReason)
	assert.Empty(t, stored.BurnTxHash)
}

func TestUploadBurnProofCompletesBurn(t *testing.T) {
	env := newTestEnv(t)
	bankID := env.seedBank(t, "Banco Estado")
	ctx := context.Background()

	req, err := env.burns.RequestBurn(ctx, "a@b.cl", decimal.NewFromInt(10), testBankDetails(bankID))
	require.NoError(t, err)

	url, err := env.burns.UploadBurnProof(ctx, req.ID, "0xburn", pngProof(t))
	require.NoError(t, err)

	stored := env.reloadBurn(t, req.ID)
	assert.Equal(t, model.BurnStatusBurned, stored.Status)
	assert.Equal(t, "0xburn", stored.BurnTxHash)
	assert.Equal(t, url, stored.ProofImageURL)

	// 没有哈希的凭证上传被拒，不会出现有凭证没哈希的 burned
	req2, err := env.burns.RequestBurn(ctx, "b@b.cl", decimal.NewFromInt(5), testBankDetails(bankID))
	require.NoError(t, err)
	_, err = env.burns.UploadBurnProof(ctx, req2.ID, "", pngProof(t))
	assert.ErrorIs(t, err, errno.ErrValidation)
	assert.Equal(t, model.BurnStatusReceivedNotBurned, env.reloadBurn(t, req2.ID).Status)
}

func TestGetBurnRequestNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.burns.GetBurnRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, errno.ErrBurnNotFound)
}
