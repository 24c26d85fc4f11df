package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stablecoin-core/pkg/logger"
)

// WebhookPusher 把告警 POST 到 Discord 风格的 webhook
type WebhookPusher struct {
	url    string
	client *http.Client
}

func NewWebhookPusher(url string) *WebhookPusher {
	return &WebhookPusher{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// webhookPayload Discord webhook embed 格式
type webhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Image       *webhookImage `json:"image,omitempty"`
	Footer      webhookFooter `json:"footer"`
}

type webhookImage struct {
	URL string `json:"url"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

func severityColor(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0xE74C3C // red
	case SeverityWarning:
		return 0xF1C40F // yellow
	default:
		return 0x3498DB // blue
	}
}

func (p *WebhookPusher) Push(ctx context.Context, alert Alert) error {
	if p.url == "" {
		logger.Debug("webhook url not configured, dropping alert", zap.String("title", alert.Title))
		return nil
	}

	embed := webhookEmbed{
		Title:       alert.Title,
		Description: alert.Body,
		Color:       severityColor(alert.Severity),
		Footer:      webhookFooter{Text: alert.Channel},
	}
	if alert.ImageURL != "" {
		embed.Image = &webhookImage{URL: alert.ImageURL}
	}

	body, err := json.Marshal(webhookPayload{Embeds: []webhookEmbed{embed}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("push webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
