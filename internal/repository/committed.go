package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
)

type CommittedEventRepository interface {
	Insert(ctx context.Context, rec *entity.CommittedEvent) error
	ListByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*entity.CommittedEvent, error)
}

type committedEventRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCommittedEventRepository(pool *pgxpool.Pool, logger *slog.Logger) CommittedEventRepository {
	return &committedEventRepository{pool: pool, logger: logger}
}

func (r *committedEventRepository) Insert(ctx context.Context, rec *entity.CommittedEvent) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO committed_events
			(id, user_id, draft_event_id, provider_event_id, html_link, request_payload, response_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.UserID, rec.DraftEventID, rec.ProviderEventID, rec.HTMLLink,
		rec.RequestPayload, rec.ResponsePayload, rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("committed event insert failed",
			"user_id", rec.UserID,
			"provider_event_id", rec.ProviderEventID,
			"error", err,
		)
		return common.WrapError(err, "insert committed event")
	}
	r.logger.Info("committed event recorded",
		"id", rec.ID,
		"user_id", rec.UserID,
		"provider_event_id", rec.ProviderEventID,
	)
	return nil
}

func (r *committedEventRepository) ListByUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*entity.CommittedEvent, error) {
	q := `
		SELECT id, user_id, draft_event_id, provider_event_id, html_link, request_payload, response_payload, created_at
		FROM committed_events
		WHERE user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, *from)
		q += ` AND created_at >= $2`
	}
	if to != nil {
		args = append(args, *to)
		if from != nil {
			q += ` AND created_at <= $3`
		} else {
			q += ` AND created_at <= $2`
		}
	}
	q += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("committed event list failed", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "list committed events")
	}
	defer rows.Close()

	var out []*entity.CommittedEvent
	for rows.Next() {
		var rec entity.CommittedEvent
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.DraftEventID, &rec.ProviderEventID, &rec.HTMLLink,
			&rec.RequestPayload, &rec.ResponsePayload, &rec.CreatedAt,
		); err != nil {
			return nil, common.WrapError(err, "scan committed event")
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
