package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/common"
)

// Config for the provider client. BaseURL points at the Calendar API root
// (override in tests).
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client submits events to the Google Calendar API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/calendar/v3"
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient, log: logger}
}

// EventResult is the slice of the provider response the engine needs; the
// raw body is returned alongside for the audit record.
type EventResult struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// InsertEvent POSTs the payload to the user's primary calendar. A non-2xx
// response surfaces as a ProviderError carrying the status and body; no
// retries happen here.
func (c *Client) InsertEvent(ctx context.Context, accessToken string, payload EventPayload) (*EventResult, []byte, error) {
	reqID := uuid.New().String()
	start := time.Now()
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/calendars/primary/events"

	bs, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("encode event payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	c.log.Info("calendar.insert.request",
		"req_id", reqID,
		"summary", payload.Summary,
		"start", payload.Start.DateTime,
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("calendar.insert.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, common.NewTransientError("calendar request failed", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("calendar.insert.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.log.Info("calendar.insert.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, raw, common.NewProviderError(resp.StatusCode, raw)
	}

	var out EventResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, raw, fmt.Errorf("decode provider response: %w", err)
	}
	return &out, raw, nil
}
