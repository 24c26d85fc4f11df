package notify

import "context"

// Severity 推送告警级别
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert 一条推送告警
type Alert struct {
	Title    string
	Body     string
	Severity Severity
	ImageURL string // 可选，凭证截图等
	Channel  string
}

// Pusher 推送通知接收端 (fire-and-forget，失败只记日志不重试)
type Pusher interface {
	Push(ctx context.Context, alert Alert) error
}

// Emailer 模板邮件接收端
// template 是邮件类型标识，渲染内容由下游投递系统负责。
type Emailer interface {
	Send(ctx context.Context, recipient string, template string, data map[string]string) error
}

// 邮件模板类型
const (
	EmailDepositRegistered = "deposit_registered"
	EmailDepositApproved   = "deposit_approved"
	EmailDepositRejected   = "deposit_rejected"
	EmailDepositMinted     = "deposit_minted"
	EmailBurnRequested     = "burn_requested"
	EmailBurnCompleted     = "burn_completed"
	EmailBurnRejected      = "burn_rejected"
)
