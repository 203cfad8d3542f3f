package extract

import (
	"strings"
	"testing"
	"time"
)

const flyerText = `CLUB INFO SESSION
Date: Friday, September 15th, 2024
Time: 7:00 PM - 9:00 PM
Location: Student Center Room 205
Contact: club@university.edu`

func TestExtract_FullFlyer(t *testing.T) {
	c := Extract(flyerText)

	if c.Title != "CLUB INFO SESSION" {
		t.Errorf("title = %q, want %q", c.Title, "CLUB INFO SESSION")
	}
	if c.StartsAt == nil {
		t.Fatal("expected an absolute start")
	}
	want := time.Date(2024, time.September, 15, 19, 0, 0, 0, time.UTC)
	if !c.StartsAt.Equal(want) {
		t.Errorf("start = %v, want %v", c.StartsAt, want)
	}
	if c.EndsAt == nil || !c.EndsAt.Equal(want.Add(2*time.Hour)) {
		t.Errorf("end = %v, want start+2h", c.EndsAt)
	}
	if !strings.Contains(c.Location, "Room 205") {
		t.Errorf("location = %q, want it to contain Room 205", c.Location)
	}
	if !strings.Contains(c.Notes, "club@university.edu") {
		t.Errorf("notes = %q, want the contact line", c.Notes)
	}
	if c.Confidence < 0.8 {
		t.Errorf("confidence = %.2f, want >= 0.8", c.Confidence)
	}
	if NeedsConfirmation(c) {
		t.Error("full flyer should not need confirmation")
	}
}

func TestExtract_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   \n\n  \n"} {
		c := Extract(text)
		if c.Title != "" || c.HasStart() || c.Location != "" || c.Notes != "" {
			t.Errorf("Extract(%q) found fields in empty input: %+v", text, c)
		}
		if c.Confidence != 0.5 {
			t.Errorf("Extract(%q) confidence = %.2f, want 0.5", text, c.Confidence)
		}
	}
}

func TestExtract_ConfidenceClamped(t *testing.T) {
	inputs := []string{
		flyerText,
		"A\nB",
		"JUST A HEADLINE HERE",
		"Date: sometime soon\nTime: 7:00 PM\n@ Community Center\nhttp://example.com",
		strings.Repeat("Sunday 01/01/2024 7:00 PM Room 1 contact@x.com\n", 50),
	}
	for _, text := range inputs {
		c := Extract(text)
		if c.Confidence < 0 || c.Confidence > 1.0 {
			t.Errorf("confidence %.2f out of [0,1] for %q", c.Confidence, text)
		}
	}
}

func TestExtract_DateTimeMerge(t *testing.T) {
	c := Extract("MOVIE NIGHT\nWhen: 10/03/2024\nDoors 6:30 pm")
	if c.StartsAt == nil {
		t.Fatal("expected an absolute start")
	}
	want := time.Date(2024, time.October, 3, 18, 30, 0, 0, time.UTC)
	if !c.StartsAt.Equal(want) {
		t.Errorf("start = %v, want merged %v", c.StartsAt, want)
	}
	// base 0.5 + title 0.2 + parsed date 0.3 + time 0.2 = at least 1.0 pre-clamp
	if c.Confidence < 1.0 {
		t.Errorf("confidence = %.2f, want clamped 1.0", c.Confidence)
	}
}

func TestExtract_RawDateSeedKeptVerbatim(t *testing.T) {
	c := Extract("OPEN MIC\nDate: second Friday of the month")
	if c.StartsAt != nil {
		t.Fatalf("unexpected absolute start %v", c.StartsAt)
	}
	if c.StartText != "second Friday of the month" {
		t.Errorf("start text = %q, want raw matched substring", c.StartText)
	}
	if c.EndsAt != nil {
		t.Errorf("end = %v, want empty without an absolute start", c.EndsAt)
	}
}

func TestExtract_FirstDateMatchWins(t *testing.T) {
	// Two date-like lines: only the first seed is retained.
	c := Extract("Date: 09/15/2024\nDate: 12/25/2024")
	if c.StartsAt == nil {
		t.Fatal("expected an absolute start")
	}
	if c.StartsAt.Month() != time.September {
		t.Errorf("start = %v, want the first matched date", c.StartsAt)
	}
}

func TestExtract_TimeOnlySeedStaysRaw(t *testing.T) {
	// "Time:" line is hit by the labeled-prefix date matcher before the
	// standalone clock scan runs, so the seed is the raw range text.
	c := Extract("Time: 7:00 PM - 9:00 PM")
	if c.StartsAt != nil {
		t.Fatalf("unexpected absolute start %v", c.StartsAt)
	}
	if c.StartText != "7:00 PM - 9:00 PM" {
		t.Errorf("start text = %q, want raw time range", c.StartText)
	}
}

func TestExtract_Title(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"first long line", "SPRING GALA\nmore text", "SPRING GALA"},
		{"skips short lines", "Hi\nGo!\nANNUAL HACKATHON", "ANNUAL HACKATHON"},
		{"skips date-ish lines", "Date: 09/15/2024\nGAME NIGHT EXTRAVAGANZA", "GAME NIGHT EXTRAVAGANZA"},
		{"only first three lines scanned", "a\nb\nc\nTHE REAL TITLE", ""},
		{"stop word anywhere in line", "Save the date party", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.text).Title; got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_Location(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled prefix", "Where: Riverside Park", "Riverside Park"},
		{"at phrase with venue keyword", "Join us at the Wellness Center on Main", "the Wellness Center on Main"},
		{"bare room number", "Meet in Room 118 after class", "Room 118"},
		{"bare venue phrase", "Doors open near Carnegie Hall tonight", "Doors open near Carnegie Hall tonight"},
		{"no venue", "Bring snacks and friends", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.text).Location; got != tt.want {
				t.Errorf("location = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract_Notes(t *testing.T) {
	c := Extract("BOOK CLUB MEETS\nRSVP: https://example.com/rsvp\nquestions? contact Sam\nbring a friend")
	if !strings.Contains(c.Notes, "https://example.com/rsvp") || !strings.Contains(c.Notes, "contact Sam") {
		t.Errorf("notes = %q, want both contact-ish lines", c.Notes)
	}
	if strings.Contains(c.Notes, "bring a friend") {
		t.Errorf("notes = %q, picked up a non-contact line", c.Notes)
	}
	if len(strings.Split(c.Notes, "\n")) != 2 {
		t.Errorf("notes = %q, want two newline-joined lines", c.Notes)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	a := Extract(flyerText)
	b := Extract(flyerText)
	if a.Title != b.Title || a.Confidence != b.Confidence || a.Location != b.Location {
		t.Errorf("extraction not deterministic: %+v vs %+v", a, b)
	}
}
