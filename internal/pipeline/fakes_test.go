package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/calendar"
	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
)

// In-memory fakes for the repository and provider seams.

type fakeDraftRepo struct {
	mu        sync.Mutex
	drafts    []*entity.DraftEvent
	insertErr error
	seq       int
}

func (f *fakeDraftRepo) Insert(_ context.Context, d *entity.DraftEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	f.seq++
	d.CreatedAt = time.Unix(int64(f.seq), 0)
	d.UpdatedAt = d.CreatedAt
	cp := *d
	f.drafts = append(f.drafts, &cp)
	return nil
}

func (f *fakeDraftRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.DraftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drafts {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeDraftRepo) LatestEligible(_ context.Context, userID uuid.UUID) (*entity.DraftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entity.DraftEvent
	for _, d := range f.drafts {
		if d.UserID != userID || d.NeedsConfirmation {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			latest = d
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeDraftRepo) ListPending(_ context.Context, userID uuid.UUID) ([]*entity.DraftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.DraftEvent
	for _, d := range f.drafts {
		if d.UserID == userID && d.NeedsConfirmation {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDraftRepo) SetNeedsConfirmation(_ context.Context, id uuid.UUID, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.drafts {
		if d.ID == id {
			d.NeedsConfirmation = v
			return nil
		}
	}
	return common.ErrNotFound
}

type fakeCommittedRepo struct {
	mu        sync.Mutex
	records   []*entity.CommittedEvent
	insertErr error
}

func (f *fakeCommittedRepo) Insert(_ context.Context, rec *entity.CommittedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeCommittedRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ *time.Time) ([]*entity.CommittedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.CommittedEvent
	for _, r := range f.records {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	recorded  map[uuid.UUID]bool
	processed map[uuid.UUID]bool
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{recorded: map[uuid.UUID]bool{}, processed: map[uuid.UUID]bool{}}
}

func (f *fakeMessageRepo) Record(_ context.Context, m *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded[m.ID] = true
	return nil
}

func (f *fakeMessageRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed[id] = true
	return nil
}

type fakeTokenSource struct {
	token string
	err   error
	calls int
}

func (f *fakeTokenSource) AccessToken(_ context.Context, _ uuid.UUID) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

type fakeSubmitter struct {
	mu     sync.Mutex
	calls  int
	tokens []string
	err    error
	result calendar.EventResult
}

func (f *fakeSubmitter) InsertEvent(_ context.Context, token string, _ calendar.EventPayload) (*calendar.EventResult, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, nil, f.err
	}
	res := f.result
	if res.ID == "" {
		res.ID = "evt123"
		res.HTMLLink = "https://calendar.google.com/event?eid=abc"
	}
	return &res, []byte(`{"id":"` + res.ID + `","status":"confirmed"}`), nil
}

type fakeRecognizer struct {
	text string
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

var errBoom = errors.New("boom")
