package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gramcal/gramcal/constants"
	"github.com/gramcal/gramcal/internal/entity"
	"github.com/gramcal/gramcal/internal/extract"
	"github.com/gramcal/gramcal/internal/ocr"
	"github.com/gramcal/gramcal/internal/repository"
)

// IngestRequest is the normalized media-bearing message handed over by the
// webhook layer.
type IngestRequest struct {
	UserID    uuid.UUID
	MessageID uuid.UUID
	MediaURL  string
}

// IngestResult reports where a message ended up in the pipeline.
type IngestResult struct {
	DraftID           uuid.UUID               `json:"draft_id"`
	State             constants.PipelineState `json:"state"`
	NeedsConfirmation bool                    `json:"needs_confirmation"`
	Confidence        float32                 `json:"confidence"`
	Commit            *CommitResult           `json:"commit,omitempty"`
}

// IngestStage runs OCR, extraction and the confidence policy, persists the
// draft, and hands auto-eligible drafts straight to the commit stage.
type IngestStage struct {
	Logger     *slog.Logger
	Recognizer ocr.Recognizer
	Messages   repository.MessageRepository
	Drafts     repository.DraftRepository
	Commit     *CommitStage
}

func NewIngestStage(
	logger *slog.Logger,
	recognizer ocr.Recognizer,
	messages repository.MessageRepository,
	drafts repository.DraftRepository,
	commit *CommitStage,
) *IngestStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestStage{
		Logger:     logger,
		Recognizer: recognizer,
		Messages:   messages,
		Drafts:     drafts,
		Commit:     commit,
	}
}

// Process runs one message through the pipeline. OCR or draft persistence
// failure aborts with no side effects beyond what already committed: the
// message stays unprocessed and remains eligible for reprocessing. Exactly
// one draft is created per processed message.
func (s *IngestStage) Process(ctx context.Context, req IngestRequest) (IngestResult, error) {
	s.Logger.Info("ingest.received", "user_id", req.UserID, "message_id", req.MessageID)

	msg := &entity.Message{ID: req.MessageID, UserID: req.UserID, MediaURL: req.MediaURL}
	if err := s.Messages.Record(ctx, msg); err != nil {
		return IngestResult{State: constants.StateReceived}, err
	}

	text, err := s.Recognizer.Recognize(ctx, req.MediaURL)
	if err != nil {
		s.Logger.Error("ingest.ocr_failed", "message_id", req.MessageID, "error", err)
		return IngestResult{State: constants.StateReceived}, err
	}
	s.Logger.Info("ingest.ocr_done", "message_id", req.MessageID, "bytes", len(text))

	candidate := extract.Extract(text)
	needsConfirmation := extract.NeedsConfirmation(candidate)
	s.Logger.Info("ingest.extracted",
		"message_id", req.MessageID,
		"has_title", candidate.Title != "",
		"has_start", candidate.HasStart(),
		"confidence", candidate.Confidence,
		"needs_confirmation", needsConfirmation,
	)

	// The draft is persisted regardless of confidence, for audit and later
	// correction.
	draft := &entity.DraftEvent{
		UserID:            req.UserID,
		MessageID:         req.MessageID,
		Title:             candidate.Title,
		StartsAt:          candidate.StartsAt,
		StartText:         candidate.StartText,
		EndsAt:            candidate.EndsAt,
		Location:          candidate.Location,
		Notes:             candidate.Notes,
		Confidence:        candidate.Confidence,
		NeedsConfirmation: needsConfirmation,
		OCRText:           text,
	}
	if err := s.Drafts.Insert(ctx, draft); err != nil {
		return IngestResult{State: constants.StateExtracted}, err
	}

	if err := s.Messages.MarkProcessed(ctx, req.MessageID); err != nil {
		return IngestResult{DraftID: draft.ID, State: constants.StateDraftPersisted}, err
	}

	result := IngestResult{
		DraftID:           draft.ID,
		NeedsConfirmation: needsConfirmation,
		Confidence:        candidate.Confidence,
	}

	if needsConfirmation {
		result.State = constants.StatePending
		s.Logger.Info("ingest.pending_confirmation", "draft_id", draft.ID, "user_id", req.UserID)
		return result, nil
	}

	result.State = constants.StateAutoCommitted
	commit, err := s.Commit.Commit(ctx, req.UserID, nil)
	if err != nil {
		// Draft and message state are already settled; the commit failure
		// surfaces to the caller and the draft stays available for an
		// explicit retry.
		s.Logger.Error("ingest.auto_commit_failed", "draft_id", draft.ID, "error", err)
		return result, err
	}
	result.Commit = &commit
	return result, nil
}
