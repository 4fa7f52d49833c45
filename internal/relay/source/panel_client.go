// Package source implements the client for the upstream SMS panel the
// relay polls. Authentication details are a black box here: the relay
// only needs "fetch the newest rows" and "refresh the session", and it
// treats auth failure as one more retryable error.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vasu241267/s-panel/internal/relay/domain"
)

const panelTimeLayout = "2006-01-02 15:04:05"

// PanelClient talks to the panel's viewstats endpoint.
type PanelClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

// NewPanelClient builds a client. A nil httpClient gets a default with
// an 8 second timeout; the timeout is what keeps a hung upstream from
// stalling the poller.
func NewPanelClient(logger *slog.Logger, baseURL, apiToken string, httpClient *http.Client) *PanelClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	return &PanelClient{
		logger:     logger.With("component", "panel_client"),
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
	}
}

// viewStatsResponse is the panel's wire format. dt is local panel time
// in "2006-01-02 15:04:05"; num arrives in provider format.
type viewStatsResponse struct {
	Status string         `json:"status"`
	Data   []viewStatsRow `json:"data"`
}

type viewStatsRow struct {
	DT      string `json:"dt"`
	Num     string `json:"num"`
	CLI     string `json:"cli"`
	Message string `json:"message"`
	Country string `json:"country,omitempty"`
}

// FetchRecent returns the most recent limit rows from the panel.
// Errors map onto the pipeline taxonomy: HTTP 401/403 or an
// "unauthenticated" body yield domain.ErrAuthExpired, everything else
// wraps domain.ErrUpstreamUnavailable.
func (c *PanelClient) FetchRecent(ctx context.Context, limit int) ([]domain.RawRecord, error) {
	q := url.Values{}
	q.Set("token", c.apiToken)
	q.Set("dt1", "1970-01-01 00:00:00")
	q.Set("dt2", "2099-12-31 23:59:59")
	q.Set("records", fmt.Sprintf("%d", limit))

	reqURL := c.baseURL + "/viewstats?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrUpstreamUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, domain.ErrAuthExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}

	var parsed viewStatsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", domain.ErrUpstreamUnavailable, err)
	}

	switch parsed.Status {
	case "success":
	case "unauthenticated":
		return nil, domain.ErrAuthExpired
	default:
		return nil, fmt.Errorf("%w: panel status %q", domain.ErrUpstreamUnavailable, parsed.Status)
	}

	records := make([]domain.RawRecord, 0, len(parsed.Data))
	for _, row := range parsed.Data {
		receivedAt, err := time.ParseInLocation(panelTimeLayout, row.DT, time.UTC)
		if err != nil {
			// Keep the row; the fingerprint still covers it via number
			// and text, and the poller's validator decides its fate.
			c.logger.DebugContext(ctx, "unparseable panel timestamp", "dt", row.DT)
		}
		records = append(records, domain.RawRecord{
			ReceivedAt:    receivedAt,
			Number:        row.Num,
			Sender:        row.CLI,
			Text:          row.Message,
			SourceCountry: row.Country,
		})
	}
	return records, nil
}

// Reauthenticate refreshes the panel session. The panel treats a
// token re-submission as a session refresh; anything beyond that
// (captcha flows, cookies) is handled outside this service.
func (c *PanelClient) Reauthenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("token", c.apiToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build login request: %v", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: login status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}
	c.logger.InfoContext(ctx, "panel session refreshed")
	return nil
}
