package handler

import (
	"github.com/gin-gonic/gin"

	"stablecoin-core/internal/handler/response"
	"stablecoin-core/internal/service"
)

type BankHandler struct {
	banks *service.BankService
}

func NewBankHandler(banks *service.BankService) *BankHandler {
	return &BankHandler{banks: banks}
}

// List 赎回可选银行列表
// @Summary 银行列表
// @Tags Bank
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/banks [get]
func (h *BankHandler) List(c *gin.Context) {
	banks, err := h.banks.ListBanks(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, banks)
}
