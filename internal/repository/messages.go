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

type MessageRepository interface {
	// Record inserts the normalized message if it is not already known.
	// Re-delivered webhooks are a no-op.
	Record(ctx context.Context, m *entity.Message) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}

type messageRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMessageRepository(pool *pgxpool.Pool, logger *slog.Logger) MessageRepository {
	return &messageRepository{pool: pool, logger: logger}
}

func (r *messageRepository) Record(ctx context.Context, m *entity.Message) error {
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, user_id, media_url, processed, received_at)
		VALUES ($1, $2, $3, false, $4)
		ON CONFLICT (id) DO NOTHING`,
		m.ID, m.UserID, m.MediaURL, m.ReceivedAt,
	)
	if err != nil {
		r.logger.Error("message record failed", "message_id", m.ID, "error", err)
		return common.WrapError(err, "record message")
	}
	return nil
}

func (r *messageRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET processed = true WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("message mark processed failed", "message_id", id, "error", err)
		return common.WrapError(err, "mark message processed")
	}
	return nil
}
