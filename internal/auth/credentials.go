package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/repository"
)

// TokenSource yields a currently valid access token for a user. Token
// contents are opaque to callers.
type TokenSource interface {
	AccessToken(ctx context.Context, userID uuid.UUID) (string, error)
}

// Config for the Google OAuth token lifecycle.
type Config struct {
	TokenURL     string // OAuth token endpoint
	ProbeURL     string // cheap authenticated endpoint used to detect stale tokens
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Manager implements TokenSource against the stored credential pair. A test
// probe call detects stale access tokens; on 401 the refresh token is
// exchanged and the new access token persisted.
type Manager struct {
	cfg        Config
	creds      repository.CredentialRepository
	httpClient *http.Client
	log        *slog.Logger
}

func NewManager(cfg Config, creds repository.CredentialRepository, httpClient *http.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://oauth2.googleapis.com/token"
	}
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = "https://www.googleapis.com/calendar/v3/users/me/calendarList?maxResults=1"
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Manager{cfg: cfg, creds: creds, httpClient: httpClient, log: logger}
}

// AccessToken returns a valid access token for the user, refreshing it
// transparently when the probe reports unauthorized.
func (m *Manager) AccessToken(ctx context.Context, userID uuid.UUID) (string, error) {
	cred, err := m.creds.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.NewCredentialError("no calendar connection for user", nil)
		}
		return "", err
	}

	status, err := m.probe(ctx, cred.AccessToken)
	if err != nil {
		return "", err
	}
	if status != http.StatusUnauthorized {
		return cred.AccessToken, nil
	}

	m.log.Info("auth.token_stale", "user_id", userID)
	if cred.RefreshToken == "" {
		return "", common.NewCredentialError("access token expired and no refresh token stored", nil)
	}

	fresh, err := m.refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}
	if err := m.creds.UpdateAccessToken(ctx, userID, fresh); err != nil {
		// Token is valid even if bookkeeping failed; still return it.
		m.log.Error("auth.token_store_failed", "user_id", userID, "error", err)
	}
	return fresh, nil
}

// probe makes a cheap authenticated call and returns its status code. Only
// transport failures are errors; a 401 is a normal answer.
func (m *Manager) probe(ctx context.Context, accessToken string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.ProbeURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, common.NewTransientError("token probe failed", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			m.log.Warn("auth.probe_body_close_error", "error", err)
		}
	}(resp.Body)
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// refresh exchanges the refresh token for a new access token.
func (m *Manager) refresh(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {m.cfg.ClientID},
		"client_secret": {m.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", common.NewTransientError("token refresh failed", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			m.log.Warn("auth.refresh_body_close_error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		m.log.Error("auth.refresh_rejected", "status", resp.StatusCode, "bytes", len(raw))
		return "", common.NewCredentialError(fmt.Sprintf("refresh rejected with status %d", resp.StatusCode), nil)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", common.NewCredentialError("decode refresh response", err)
	}
	if out.AccessToken == "" {
		return "", common.NewCredentialError("refresh response missing access_token", nil)
	}
	return out.AccessToken, nil
}
