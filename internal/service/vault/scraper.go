package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"stablecoin-core/pkg/errno"
)

// HTTPScraper 通过托管方提供的只读端点抓取金库法币余额。
// 端点返回 {"balance": "12345.67"}；拿不到就报外部服务错误，
// 零余额的哨兵语义由 Guard 统一处理，这里原样返回。
type HTTPScraper struct {
	url    string
	client *http.Client
}

func NewHTTPScraper(url string) *HTTPScraper {
	return &HTTPScraper{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPScraper) GetVaultBalance(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", errno.ErrVaultScrape, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: upstream status %d", errno.ErrVaultScrape, resp.StatusCode)
	}

	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode body: %v", errno.ErrVaultScrape, err)
	}
	return body.Balance, nil
}
