package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
)

type DraftRepository interface {
	Insert(ctx context.Context, draft *entity.DraftEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.DraftEvent, error)
	// LatestEligible returns the most recently created draft for the user
	// with needs_confirmation=false, or ErrNotFound.
	LatestEligible(ctx context.Context, userID uuid.UUID) (*entity.DraftEvent, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]*entity.DraftEvent, error)
	SetNeedsConfirmation(ctx context.Context, id uuid.UUID, needsConfirmation bool) error
}

type draftRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDraftRepository(pool *pgxpool.Pool, logger *slog.Logger) DraftRepository {
	return &draftRepository{pool: pool, logger: logger}
}

const draftColumns = `id, user_id, message_id, title, starts_at, start_text, ends_at,
	location, notes, confidence, needs_confirmation, ocr_text, created_at, updated_at`

func (r *draftRepository) Insert(ctx context.Context, d *entity.DraftEvent) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO draft_events (`+draftColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		d.ID, d.UserID, d.MessageID, d.Title, d.StartsAt, d.StartText, d.EndsAt,
		d.Location, d.Notes, d.Confidence, d.NeedsConfirmation, d.OCRText, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("draft insert failed", "user_id", d.UserID, "message_id", d.MessageID, "error", err)
		return common.WrapError(err, "insert draft")
	}
	r.logger.Info("draft persisted",
		"draft_id", d.ID,
		"user_id", d.UserID,
		"needs_confirmation", d.NeedsConfirmation,
		"confidence", d.Confidence,
	)
	return nil
}

func (r *draftRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.DraftEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+draftColumns+`
		FROM draft_events
		WHERE id = $1`, id)
	return scanDraft(row)
}

func (r *draftRepository) LatestEligible(ctx context.Context, userID uuid.UUID) (*entity.DraftEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+draftColumns+`
		FROM draft_events
		WHERE user_id = $1 AND needs_confirmation = false
		ORDER BY created_at DESC
		LIMIT 1`, userID)
	return scanDraft(row)
}

func (r *draftRepository) ListPending(ctx context.Context, userID uuid.UUID) ([]*entity.DraftEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+draftColumns+`
		FROM draft_events
		WHERE user_id = $1 AND needs_confirmation = true
		ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Error("draft list failed", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "list pending drafts")
	}
	defer rows.Close()

	var out []*entity.DraftEvent
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *draftRepository) SetNeedsConfirmation(ctx context.Context, id uuid.UUID, needsConfirmation bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE draft_events
		SET needs_confirmation = $2, updated_at = $3
		WHERE id = $1`,
		id, needsConfirmation, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("draft flag update failed", "draft_id", id, "error", err)
		return common.WrapError(err, "update draft")
	}
	return nil
}

func scanDraft(row pgx.Row) (*entity.DraftEvent, error) {
	var d entity.DraftEvent
	err := row.Scan(
		&d.ID, &d.UserID, &d.MessageID, &d.Title, &d.StartsAt, &d.StartText, &d.EndsAt,
		&d.Location, &d.Notes, &d.Confidence, &d.NeedsConfirmation, &d.OCRText, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "scan draft")
	}
	return &d, nil
}
