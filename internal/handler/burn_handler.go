package handler

import (
	"github.com/gin-gonic/gin"

	"stablecoin-core/internal/handler/request"
	"stablecoin-core/internal/handler/response"
	"stablecoin-core/internal/service"
	"stablecoin-core/pkg/errno"
)

type BurnHandler struct {
	burns *service.BurnService
}

func NewBurnHandler(burns *service.BurnService) *BurnHandler {
	return &BurnHandler{burns: burns}
}

// Create 发起赎回
// @Summary 发起赎回
// @Description 用户申请销毁代币换取法币打款
// @Tags Burn
// @Accept json
// @Produce json
// @Param request body request.CreateBurnRequest true "Burn Request"
// @Success 200 {object} response.Response
// @Router /api/v1/burns [post]
func (h *BurnHandler) Create(c *gin.Context) {
	var req request.CreateBurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	burn, err := h.burns.RequestBurn(c.Request.Context(), req.Email, req.Amount, service.BankDetails{
		AccountHolder: req.AccountHolder,
		RUT:           req.RUT,
		AccountNumber: req.AccountNumber,
		BankID:        req.BankID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, burn)
}

// Approve 确认销毁完成
// @Summary 确认销毁完成
// @Tags Burn
// @Accept json
// @Produce json
// @Param id path string true "Burn Request ID"
// @Param request body request.ApproveBurnRequest true "Approve Request"
// @Success 200 {object} response.Response
// @Router /api/v1/burns/{id}/approve [post]
func (h *BurnHandler) Approve(c *gin.Context) {
	var req request.ApproveBurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	if err := h.burns.ApproveBurnRequest(c.Request.Context(), c.Param("id"), req.TxHash); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Reject 驳回赎回
// @Summary 驳回赎回
// @Tags Burn
// @Accept json
// @Produce json
// @Param id path string true "Burn Request ID"
// @Param request body request.RejectBurnRequest true "Reject Request"
// @Success 200 {object} response.Response
// @Router /api/v1/burns/{id}/reject [post]
func (h *BurnHandler) Reject(c *gin.Context) {
	var req request.RejectBurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	if err := h.burns.RejectBurnRequest(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UploadProof 上传销毁凭证并完成赎回
// @Summary 上传销毁凭证
// @Tags Burn
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Burn Request ID"
// @Param tx_hash formData string true "Burn transaction hash"
// @Param file formData file true "Proof file (image or PDF)"
// @Success 200 {object} response.Response
// @Router /api/v1/burns/{id}/proof [post]
func (h *BurnHandler) UploadProof(c *gin.Context) {
	data, ok := readProofFile(c)
	if !ok {
		return
	}

	url, err := h.burns.UploadBurnProof(c.Request.Context(), c.Param("id"), c.PostForm("tx_hash"), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"proof_image_url": url})
}
