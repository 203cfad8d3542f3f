package entity

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the stored OAuth token pair for a user's Google account.
// Consumers treat the tokens as opaque; expiry is implicit and detected via
// a probe call.
type Credential struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}
