// Package oracle предоставляет клиент внешнего ценового оракула, кэш цен
// и периодическое обновление кэша по расписанию.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured возвращается, если адрес оракула не задан.
var ErrNotConfigured = errors.New("price oracle not configured")

// Client инкапсулирует HTTP-взаимодействие с ценовым оракулом.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Quote описывает ответ оракула по одному токену.
// Price выражена в единицах PricePrecision платёжного токена.
type Quote struct {
	Token     string    `json:"token"`
	Price     uint64    `json:"price"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewClient создаёт HTTP-клиент для обращения к оракулу по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetPrice запрашивает текущую цену токена. Для ответа 429 возвращается рекомендованная пауза,
// для 204 (цена неизвестна) пустой результат без ошибки.
func (c *Client) GetPrice(ctx context.Context, token string) (*Quote, int, time.Duration, error) {
	if c == nil || c.baseURL == "" {
		return nil, 0, 0, ErrNotConfigured
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	endpoint := fmt.Sprintf("%s/api/prices/%s", base, url.PathEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, resp.StatusCode, retryAfter, nil
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.StatusCode, 0, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result Quote
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, 0, fmt.Errorf("decode response: %w", err)
	}
	if result.Token == "" {
		result.Token = token
	}

	return &result, resp.StatusCode, 0, nil
}
