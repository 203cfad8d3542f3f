package ocr

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

	"github.com/gramcal/gramcal/internal/common"
)

// Recognizer turns a media URL into plain text. The real OCR work happens in
// an external service; this package only adapts its HTTP surface.
type Recognizer interface {
	Recognize(ctx context.Context, mediaURL string) (string, error)
}

// Config for the HTTP recognizer.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the OCR service over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
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

type recognizeRequest struct {
	ImageURL string `json:"image_url"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize posts the media URL to the OCR service and returns the
// recognized plain text. Any network or non-2xx failure surfaces as a
// transient error; the caller decides whether the message stays eligible
// for reprocessing.
func (c *Client) Recognize(ctx context.Context, mediaURL string) (string, error) {
	start := time.Now()
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/recognize"

	b, err := json.Marshal(recognizeRequest{ImageURL: mediaURL})
	if err != nil {
		return "", fmt.Errorf("encode ocr request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("ocr.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", common.NewTransientError("ocr request failed", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.log.Warn("ocr.response_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		c.log.Error("ocr.bad_status", "status", resp.StatusCode, "bytes", len(raw))
		return "", common.NewTransientError(fmt.Sprintf("ocr status %d", resp.StatusCode), common.ErrTransient)
	}

	var out recognizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.NewTransientError("decode ocr response", err)
	}

	c.log.Info("ocr.ok",
		"bytes", len(out.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Text, nil
}
