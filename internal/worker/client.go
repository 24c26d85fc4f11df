package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"stablecoin-core/internal/worker/tasks"
)

// EmailClient 通过 Asynq 排队邮件任务，实现 notify.Emailer。
// 入队即认为发送成功 (best-effort)，投递失败由 Worker 的重试机制兜底。
type EmailClient struct {
	client *asynq.Client
}

func NewEmailClient(addr string, password string, db int) *EmailClient {
	return &EmailClient{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *EmailClient) Send(_ context.Context, recipient string, template string, data map[string]string) error {
	task, err := tasks.NewEmailDeliveryTask(recipient, template, data)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task)
	return err
}

func (c *EmailClient) Close() error {
	return c.client.Close()
}
