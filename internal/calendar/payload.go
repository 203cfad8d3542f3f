package calendar

import (
	"time"

	"github.com/gramcal/gramcal/internal/common"
	"github.com/gramcal/gramcal/internal/entity"
)

// DefaultSummary is used when the extractor found no title but the user
// explicitly approved the draft anyway.
const DefaultSummary = "Event from Instagram"

// descriptionPreface is prepended to every event description so calendar
// entries are traceable back to their source.
const descriptionPreface = "Created automatically from an Instagram DM flyer."

// TODO(calendar): use the user's timezone once profiles carry one.
const defaultTimeZone = "UTC"

const defaultDuration = 2 * time.Hour

// EventDateTime is the provider's wire shape for a point in time.
type EventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Reminders requests the provider's default reminder set.
type Reminders struct {
	UseDefault bool `json:"useDefault"`
}

// EventPayload is the outbound wire shape for event creation.
type EventPayload struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       EventDateTime `json:"start"`
	End         EventDateTime `json:"end"`
	Location    string        `json:"location,omitempty"`
	Reminders   Reminders     `json:"reminders"`
}

// BuildEventPayload maps a draft onto the provider payload. The draft must
// carry an absolute start; a raw-text placeholder start cannot be sent to
// the provider and fails validation here.
func BuildEventPayload(d *entity.DraftEvent) (EventPayload, error) {
	if d.StartsAt == nil {
		return EventPayload{}, common.NewValidationError("draft has no parseable start time")
	}

	summary := d.Title
	if summary == "" {
		summary = DefaultSummary
	}

	description := descriptionPreface
	if d.Notes != "" {
		description += "\n\n" + d.Notes
	}

	start := d.StartsAt.UTC()
	end := start.Add(defaultDuration)
	if d.EndsAt != nil {
		end = d.EndsAt.UTC()
	}

	return EventPayload{
		Summary:     summary,
		Description: description,
		Start:       EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: defaultTimeZone},
		End:         EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: defaultTimeZone},
		Location:    d.Location,
		Reminders:   Reminders{UseDefault: true},
	}, nil
}
