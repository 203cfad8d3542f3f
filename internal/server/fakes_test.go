package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/calendar"
	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
)

type fakeDrafts struct {
	mu    sync.Mutex
	items []*entity.DraftEvent
}

func (f *fakeDrafts) Insert(_ context.Context, d *entity.DraftEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	f.items = append(f.items, &cp)
	return nil
}

func (f *fakeDrafts) GetByID(_ context.Context, id uuid.UUID) (*entity.DraftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.items {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeDrafts) LatestEligible(_ context.Context, userID uuid.UUID) (*entity.DraftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i].UserID == userID && !f.items[i].NeedsConfirmation {
			cp := *f.items[i]
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeDrafts) ListPending(_ context.Context, userID uuid.UUID) ([]*entity.DraftEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.DraftEvent
	for _, d := range f.items {
		if d.UserID == userID && d.NeedsConfirmation {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDrafts) SetNeedsConfirmation(_ context.Context, id uuid.UUID, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.items {
		if d.ID == id {
			d.NeedsConfirmation = v
		}
	}
	return nil
}

type fakeCommitted struct {
	mu      sync.Mutex
	records []*entity.CommittedEvent
}

func (f *fakeCommitted) Insert(_ context.Context, rec *entity.CommittedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeCommitted) ListByUser(_ context.Context, userID uuid.UUID, _, _ *time.Time) ([]*entity.CommittedEvent, error) {
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

type fakeMessages struct{}

func (fakeMessages) Record(_ context.Context, _ *entity.Message) error  { return nil }
func (fakeMessages) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }

type fakeTokens struct{}

func (fakeTokens) AccessToken(_ context.Context, _ uuid.UUID) (string, error) { return "tok", nil }

type fakeSubmitter struct{}

func (fakeSubmitter) InsertEvent(_ context.Context, _ string, _ calendar.EventPayload) (*calendar.EventResult, []byte, error) {
	return &calendar.EventResult{ID: "evt1", HTMLLink: "https://calendar.google.com/e/1"}, []byte(`{"id":"evt1"}`), nil
}

type fakeRecognizer struct {
	text string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (string, error) {
	return f.text, nil
}
