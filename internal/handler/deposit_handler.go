package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"stablecoin-core/internal/handler/request"
	"stablecoin-core/internal/handler/response"
	"stablecoin-core/internal/service"
	"stablecoin-core/pkg/errno"
)

// 凭证上传大小上限 (PDF 凭证也不该超过这个数)
const maxProofSize = 10 << 20 // 10 MiB

type DepositHandler struct {
	deposits *service.DepositService
}

func NewDepositHandler(deposits *service.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// Register 登记入金
// @Summary 登记入金
// @Description 用户登记一笔法币入金，进入 pending 状态
// @Tags Deposit
// @Accept json
// @Produce json
// @Param request body request.RegisterDepositRequest true "Deposit Request"
// @Success 200 {object} response.Response
// @Router /api/v1/deposits [post]
func (h *DepositHandler) Register(c *gin.Context) {
	var req request.RegisterDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	dep, err := h.deposits.RegisterDeposit(c.Request.Context(), req.Email, req.Address, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dep)
}

// Approve 审批入金
// @Summary 审批入金
// @Description 运营凭审批令牌与口令将入金转为 accepted_not_minted
// @Tags Deposit
// @Accept json
// @Produce json
// @Param id path string true "Deposit ID"
// @Param request body request.ApproveDepositRequest true "Approve Request"
// @Success 200 {object} response.Response
// @Router /api/v1/deposits/{id}/approve [post]
func (h *DepositHandler) Approve(c *gin.Context) {
	var req request.ApproveDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	approver, err := h.deposits.ApproveDeposit(c.Request.Context(), c.Param("id"), req.Token, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"approved_by": approver})
}

// Reject 驳回入金
// @Summary 驳回入金
// @Tags Deposit
// @Accept json
// @Produce json
// @Param id path string true "Deposit ID"
// @Param request body request.RejectDepositRequest true "Reject Request"
// @Success 200 {object} response.Response
// @Router /api/v1/deposits/{id}/reject [post]
func (h *DepositHandler) Reject(c *gin.Context) {
	var req request.RejectDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	approver, err := h.deposits.RejectDeposit(c.Request.Context(), c.Param("id"), req.Reason, req.Token, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"rejected_by": approver})
}

// MarkMinted 手工标记铸币完成 (对账兜底入口)
// @Summary 标记铸币完成
// @Tags Deposit
// @Accept json
// @Produce json
// @Param id path string true "Deposit ID"
// @Param request body request.MarkMintedRequest true "Mark Minted Request"
// @Success 200 {object} response.Response
// @Router /api/v1/deposits/{id}/minted [post]
func (h *DepositHandler) MarkMinted(c *gin.Context) {
	var req request.MarkMintedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind)
		return
	}

	if err := h.deposits.MarkDepositAsMinted(c.Request.Context(), c.Param("id"), req.TxHash); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UploadProof 上传入金凭证
// @Summary 上传入金凭证
// @Description 凭证归一化为 PNG 存储，并签发审批令牌推送待办
// @Tags Deposit
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Deposit ID"
// @Param file formData file true "Proof file (image or PDF)"
// @Success 200 {object} response.Response
// @Router /api/v1/deposits/{id}/proof [post]
func (h *DepositHandler) UploadProof(c *gin.Context) {
	data, ok := readProofFile(c)
	if !ok {
		return
	}

	url, err := h.deposits.UploadProofOfDeposit(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"proof_image_url": url})
}

// readProofFile 读取 multipart 的 file 字段，失败时已写响应
func readProofFile(c *gin.Context) ([]byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errno.ErrBind)
		return nil, false
	}
	if fileHeader.Size > maxProofSize {
		response.Error(c, errno.ErrValidation)
		return nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errno.ErrBind)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxProofSize))
	if err != nil {
		response.Error(c, errno.InternalServerError)
		return nil, false
	}
	return data, true
}
