package response

import (
	"stablecoin-core/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{} // Return empty object instead of null
	}
	c.JSON(200, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error returns an error response
// HTTP 状态按错误码段映射: 校验 400 / 授权与令牌 401 / 未找到 404 / 冲突 409 / 其余 500
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.JSON(errno.HTTPStatus(code), Response{
		Code:    code,
		Message: msg,
		Data:    gin.H{},
	})
}
