package handler

import (
	"github.com/gin-gonic/gin"

	"stablecoin-core/internal/handler/response"
	"stablecoin-core/internal/service/vault"
)

type VaultHandler struct {
	guard *vault.Guard
}

func NewVaultHandler(guard *vault.Guard) *VaultHandler {
	return &VaultHandler{guard: guard}
}

// GetBalance 加锁抓取金库余额 (慢，会触发外部抓取)
// @Summary 抓取金库余额
// @Tags Vault
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/vault/balance [get]
func (h *VaultHandler) GetBalance(c *gin.Context) {
	balance, err := h.guard.GetVaultBalance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// GetStoredBalance 只读路径: 最近一次持久化的余额
// @Summary 查询缓存的金库余额
// @Tags Vault
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/vault/balance/stored [get]
func (h *VaultHandler) GetStoredBalance(c *gin.Context) {
	record, err := h.guard.StoredBalance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, record)
}
