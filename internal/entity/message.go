package entity

import (
	"time"

	"github.com/google/uuid"
)

// Message is a normalized DM message record produced by the webhook layer.
// Only media-bearing messages reach the pipeline; Processed stays false
// until a draft has been persisted for it, so failed messages remain
// eligible for reprocessing.
type Message struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	MediaURL   string    `json:"media_url"`
	Processed  bool      `json:"processed"`
	ReceivedAt time.Time `json:"received_at"`
}
