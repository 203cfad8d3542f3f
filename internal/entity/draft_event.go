package entity

import (
	"time"

	"github.com/google/uuid"
)

// DraftEvent represents an extracted-but-unconfirmed event for data transfer
// between layers. StartsAt holds the absolute timestamp when the extractor
// resolved one; StartText keeps the raw matched substring when it did not.
type DraftEvent struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	MessageID         uuid.UUID  `json:"message_id"`
	Title             string     `json:"title,omitempty"`
	StartsAt          *time.Time `json:"starts_at,omitempty"`
	StartText         string     `json:"start_text,omitempty"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	Location          string     `json:"location,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Confidence        float32    `json:"confidence"`
	NeedsConfirmation bool       `json:"needs_confirmation"`
	OCRText           string     `json:"ocr_text,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// HasStart reports whether any start value was extracted, absolute or raw.
func (d *DraftEvent) HasStart() bool {
	return d.StartsAt != nil || d.StartText != ""
}
