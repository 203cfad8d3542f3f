package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CommittedEvent records one successful calendar submission. Created exactly
// once per commit and never mutated. DraftEventID is a weak reference: the
// draft may be deleted after commit, the record survives.
type CommittedEvent struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	DraftEventID    *uuid.UUID      `json:"draft_event_id,omitempty"`
	ProviderEventID string          `json:"provider_event_id"`
	HTMLLink        string          `json:"html_link,omitempty"`
	RequestPayload  json.RawMessage `json:"request_payload,omitempty"`
	ResponsePayload json.RawMessage `json:"response_payload,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}
