package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"stablecoin-core/pkg/logger"
)

// 任务类型常量
const (
	TypeEmailDelivery = "email:deliver"
)

// EmailDeliveryPayload 邮件任务参数
// Template 是邮件类型标识 (deposit_approved 等)，渲染和实际投递
// 由外部邮件系统完成，这里只负责排队与重试。
type EmailDeliveryPayload struct {
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Data      map[string]string `json:"data"`
}

// ---------------------------------------------------------------------
// 1. Producer (Client) Code
// ---------------------------------------------------------------------

// NewEmailDeliveryTask 创建邮件发送任务
func NewEmailDeliveryTask(recipient, template string, data map[string]string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailDeliveryPayload{Recipient: recipient, Template: template, Data: data})
	if err != nil {
		return nil, err
	}
	// 默认 30 分钟超时，最多重试 5 次
	return asynq.NewTask(TypeEmailDelivery, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Minute)), nil
}

// ---------------------------------------------------------------------
// 2. Consumer (Server) Code
// ---------------------------------------------------------------------

// Deliver 实际投递函数，默认只落日志 (投递内容与通道由外部系统负责)。
// 留作变量方便接入 SMTP relay 或替换测试桩。
var Deliver = func(ctx context.Context, p EmailDeliveryPayload) error {
	logger.Info("email delivered",
		zap.String("recipient", p.Recipient),
		zap.String("template", p.Template),
	)
	return nil
}

// HandleEmailDeliveryTask 处理邮件发送任务
func HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var p EmailDeliveryPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// JSON 解析失败，重试也没用，直接跳过 (SkipRetry)
		// 任务会进入 Archived 队列，方便排查
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	return Deliver(ctx, p)
}
