package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
)

// fakeCredentialRepo is an in-memory CredentialRepository.
type fakeCredentialRepo struct {
	cred    *entity.Credential
	updated string
}

func (f *fakeCredentialRepo) GetByUserID(_ context.Context, _ uuid.UUID) (*entity.Credential, error) {
	if f.cred == nil {
		return nil, common.ErrNotFound
	}
	return f.cred, nil
}

func (f *fakeCredentialRepo) UpdateAccessToken(_ context.Context, _ uuid.UUID, tok string) error {
	f.updated = tok
	return nil
}

func TestAccessToken_FreshTokenPassesProbe(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer probe.Close()

	repo := &fakeCredentialRepo{cred: &entity.Credential{AccessToken: "live-token", RefreshToken: "r1"}}
	m := NewManager(Config{ProbeURL: probe.URL, TokenURL: probe.URL}, repo, probe.Client(), nil)

	tok, err := m.AccessToken(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "live-token" {
		t.Errorf("token = %q, want the stored token untouched", tok)
	}
	if repo.updated != "" {
		t.Error("no refresh should have been persisted")
	}
}

func TestAccessToken_RefreshOn401(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer probe.Close()
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected refresh form: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","expires_in":3599}`))
	}))
	defer token.Close()

	repo := &fakeCredentialRepo{cred: &entity.Credential{AccessToken: "stale", RefreshToken: "r1"}}
	m := NewManager(Config{ProbeURL: probe.URL, TokenURL: token.URL}, repo, http.DefaultClient, nil)

	tok, err := m.AccessToken(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "fresh-token" {
		t.Errorf("token = %q, want the refreshed token", tok)
	}
	if repo.updated != "fresh-token" {
		t.Errorf("persisted token = %q, want the refreshed token stored", repo.updated)
	}
}

func TestAccessToken_NoRefreshTokenIsCredentialError(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer probe.Close()

	repo := &fakeCredentialRepo{cred: &entity.Credential{AccessToken: "stale"}}
	m := NewManager(Config{ProbeURL: probe.URL, TokenURL: probe.URL}, repo, probe.Client(), nil)

	_, err := m.AccessToken(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrCredential) {
		t.Fatalf("error = %v, want ErrCredential", err)
	}
}

func TestAccessToken_RefreshRejectedIsCredentialError(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer probe.Close()
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer token.Close()

	repo := &fakeCredentialRepo{cred: &entity.Credential{AccessToken: "stale", RefreshToken: "revoked"}}
	m := NewManager(Config{ProbeURL: probe.URL, TokenURL: token.URL}, repo, http.DefaultClient, nil)

	_, err := m.AccessToken(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrCredential) {
		t.Fatalf("error = %v, want ErrCredential", err)
	}
}

func TestAccessToken_NoConnectionIsCredentialError(t *testing.T) {
	m := NewManager(Config{}, &fakeCredentialRepo{}, http.DefaultClient, nil)
	_, err := m.AccessToken(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrCredential) {
		t.Fatalf("error = %v, want ErrCredential", err)
	}
}
