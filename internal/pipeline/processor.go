package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Processor is the facade the transport layers call: ingest for incoming
// messages, commit for explicit user approvals.
type Processor struct {
	Logger *slog.Logger
	Ingest *IngestStage
	Commit *CommitStage
}

func NewProcessor(logger *slog.Logger, ingest *IngestStage, commit *CommitStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Ingest: ingest, Commit: commit}
}

// ProcessMessage runs the ingestion pipeline for one normalized message.
func (p *Processor) ProcessMessage(ctx context.Context, req IngestRequest) (IngestResult, error) {
	res, err := p.Ingest.Process(ctx, req)
	if err != nil {
		p.Logger.Error("processor.ingest.failed", "message_id", req.MessageID, "state", res.State, "err", err)
		return res, err
	}
	p.Logger.Info("processor.ingest.ok", "message_id", req.MessageID, "state", res.State, "draft_id", res.DraftID)
	return res, nil
}

// CommitDraft submits a draft on the user-approved path (explicit draft ID)
// or the latest auto-eligible one (nil draft ID).
func (p *Processor) CommitDraft(ctx context.Context, userID uuid.UUID, draftID *uuid.UUID) (CommitResult, error) {
	res, err := p.Commit.Commit(ctx, userID, draftID)
	if err != nil {
		p.Logger.Error("processor.commit.failed", "user_id", userID, "err", err)
		return res, err
	}
	p.Logger.Info("processor.commit.ok", "user_id", userID, "draft_id", res.DraftID, "provider_event_id", res.ProviderEventID)
	return res, nil
}
