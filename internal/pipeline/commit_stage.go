package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/internal/auth"
	"github.com/gramcal/gramcal/internal/calendar"
	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
	"github.com/gramcal/gramcal/internal/repository"
)

// EventSubmitter is the slice of the calendar client the commit engine
// depends on.
type EventSubmitter interface {
	InsertEvent(ctx context.Context, accessToken string, payload calendar.EventPayload) (*calendar.EventResult, []byte, error)
}

// CommitResult reports a successful calendar submission.
type CommitResult struct {
	DraftID          uuid.UUID `json:"draft_id"`
	CommittedEventID uuid.UUID `json:"committed_event_id,omitempty"`
	ProviderEventID  string    `json:"provider_event_id"`
	HTMLLink         string    `json:"html_link,omitempty"`
}

// CommitStage submits a draft to the calendar provider and records the
// outcome.
//
// There is no guard against two concurrent commits of the same draft: the
// needs_confirmation flip is not compare-and-swap, so racing requests can
// create two provider events.
type CommitStage struct {
	Logger    *slog.Logger
	Drafts    repository.DraftRepository
	Committed repository.CommittedEventRepository
	Tokens    auth.TokenSource
	Submitter EventSubmitter
}

func NewCommitStage(
	logger *slog.Logger,
	drafts repository.DraftRepository,
	committed repository.CommittedEventRepository,
	tokens auth.TokenSource,
	submitter EventSubmitter,
) *CommitStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitStage{
		Logger:    logger,
		Drafts:    drafts,
		Committed: committed,
		Tokens:    tokens,
		Submitter: submitter,
	}
}

// Commit submits a draft for the user. With a nil draftID the most recently
// created auto-eligible draft (needs_confirmation=false) is used — the
// immediate auto-commit path. An explicit draftID (user-approved path) is
// used regardless of its confirmation flag.
func (s *CommitStage) Commit(ctx context.Context, userID uuid.UUID, draftID *uuid.UUID) (CommitResult, error) {
	draft, err := s.selectDraft(ctx, userID, draftID)
	if err != nil {
		return CommitResult{}, err
	}
	if !draft.HasStart() {
		return CommitResult{}, common.NewValidationError("draft has no start time")
	}

	token, err := s.Tokens.AccessToken(ctx, userID)
	if err != nil {
		s.Logger.Error("commit.credential_failed", "user_id", userID, "draft_id", draft.ID, "error", err)
		return CommitResult{}, err
	}

	payload, err := calendar.BuildEventPayload(draft)
	if err != nil {
		return CommitResult{}, err
	}

	res, raw, err := s.Submitter.InsertEvent(ctx, token, payload)
	if err != nil {
		s.Logger.Error("commit.provider_failed", "user_id", userID, "draft_id", draft.ID, "error", err)
		return CommitResult{}, err
	}

	out := CommitResult{
		DraftID:         draft.ID,
		ProviderEventID: res.ID,
		HTMLLink:        res.HTMLLink,
	}

	// Record the exchange for audit/replay. The calendar event already
	// exists, so a bookkeeping failure here is logged and the commit still
	// reported as success (at-least-once bias).
	reqBlob, _ := json.Marshal(payload)
	draftRef := draft.ID
	rec := &entity.CommittedEvent{
		UserID:          userID,
		DraftEventID:    &draftRef,
		ProviderEventID: res.ID,
		HTMLLink:        res.HTMLLink,
		RequestPayload:  reqBlob,
		ResponsePayload: raw,
	}
	if err := s.Committed.Insert(ctx, rec); err != nil {
		s.Logger.Error("commit.bookkeeping_failed",
			"user_id", userID,
			"draft_id", draft.ID,
			"provider_event_id", res.ID,
			"error", err,
		)
	} else {
		out.CommittedEventID = rec.ID
	}

	// Idempotent no-op when the draft was already auto-eligible.
	if err := s.Drafts.SetNeedsConfirmation(ctx, draft.ID, false); err != nil {
		return out, err
	}

	s.Logger.Info("commit.ok",
		"user_id", userID,
		"draft_id", draft.ID,
		"provider_event_id", res.ID,
	)
	return out, nil
}

func (s *CommitStage) selectDraft(ctx context.Context, userID uuid.UUID, draftID *uuid.UUID) (*entity.DraftEvent, error) {
	if draftID == nil {
		draft, err := s.Drafts.LatestEligible(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.NewValidationError("no draft found")
			}
			return nil, err
		}
		return draft, nil
	}

	draft, err := s.Drafts.GetByID(ctx, *draftID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NewValidationError(fmt.Sprintf("draft %s not found", draftID))
		}
		return nil, err
	}
	if draft.UserID != userID {
		return nil, common.NewValidationError("draft does not belong to user")
	}
	return draft, nil
}
