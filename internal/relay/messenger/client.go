// Package messenger wraps the rate-limited external messaging API the
// delivery workers call. Send outcomes map onto the pipeline's error
// taxonomy so workers can distinguish "throttled, retry later" from
// "never going to work, drop it".
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

// defaultRetryAfter is used when a 429 arrives without
// parameters.retry_after in the body.
const defaultRetryAfter = 2 * time.Second

// Client sends HTML messages through a Telegram-compatible bot API.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiBase    string
	botToken   string
}

// NewClient builds a Client. A nil httpClient gets a 10 second
// timeout default; each send also runs under the caller's context.
func NewClient(logger *slog.Logger, apiBase, botToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		logger:     logger.With("component", "messenger"),
		httpClient: httpClient,
		apiBase:    apiBase,
		botToken:   botToken,
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// Send delivers one pre-rendered HTML payload to chatID. A nil return
// is a confirmed delivery. Throttling comes back as
// *domain.RateLimitedError carrying the API's retry delay; transport
// errors and any other API failure wrap domain.ErrSendFailed.
func (c *Client) Send(ctx context.Context, chatID, payload string) error {
	reqBody, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  payload,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrSendFailed, err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiBase, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if readErr != nil {
		body = nil
	}

	var apiResp sendMessageResponse
	if len(body) > 0 {
		// A decode failure leaves apiResp zeroed; status code still
		// classifies the attempt.
		_ = json.Unmarshal(body, &apiResp)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		if apiResp.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
		}
		return &domain.RateLimitedError{RetryAfter: retryAfter}
	case resp.StatusCode >= 200 && resp.StatusCode < 300 && apiResp.OK:
		return nil
	default:
		desc := apiResp.Description
		if desc == "" {
			desc = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", domain.ErrSendFailed, desc)
	}
}
