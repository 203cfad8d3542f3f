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

type CredentialRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error)
	UpdateAccessToken(ctx context.Context, userID uuid.UUID, accessToken string) error
}

type credentialRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewCredentialRepository(pool *pgxpool.Pool, logger *slog.Logger) CredentialRepository {
	return &credentialRepository{pool: pool, logger: logger}
}

func (r *credentialRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Credential, error) {
	var c entity.Credential
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, access_token, refresh_token, updated_at
		FROM credentials
		WHERE user_id = $1`, userID,
	).Scan(&c.UserID, &c.AccessToken, &c.RefreshToken, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		r.logger.Error("credential lookup failed", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "get credential")
	}
	return &c, nil
}

func (r *credentialRepository) UpdateAccessToken(ctx context.Context, userID uuid.UUID, accessToken string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE credentials
		SET access_token = $2, updated_at = $3
		WHERE user_id = $1`,
		userID, accessToken, time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("credential update failed", "user_id", userID, "error", err)
		return common.WrapError(err, "update access token")
	}
	r.logger.Info("access token refreshed and stored", "user_id", userID)
	return nil
}
