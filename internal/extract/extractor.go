package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CandidateEvent is the transient result of running the heuristic cascade
// over OCR text. StartsAt is set when the matched date text parsed as an
// absolute timestamp; otherwise StartText keeps the raw match verbatim.
type CandidateEvent struct {
	Title      string     `json:"title,omitempty"`
	StartsAt   *time.Time `json:"starts_at,omitempty"`
	StartText  string     `json:"start_text,omitempty"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	Location   string     `json:"location,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	Confidence float32    `json:"confidence"`
}

// HasStart reports whether any start value was extracted, absolute or raw.
func (c *CandidateEvent) HasStart() bool {
	return c.StartsAt != nil || c.StartText != ""
}

// Confidence contributions. Base is what an empty flyer scores; each found
// field adds its bonus, and the sum is clamped at 1.0.
const (
	baseConfidence       = 0.5
	titleBonus           = 0.2
	dateParsedBonus      = 0.3
	dateRawBonus         = 0.1
	timeBonus            = 0.2
	locationBonus        = 0.2
	notesBonus           = 0.1
	defaultEventDuration = 2 * time.Hour
)

// Date matchers, tried in order per line. The first hit on any line becomes
// the date seed; later date-like text is ignored (first-match-wins — this is
// a heuristic cascade, not a date resolver).
var dateMatchers = []struct {
	re      *regexp.Regexp
	capture bool // use group 1 instead of the whole match
}{
	// Labeled prefixes: "Date: ...", "When - ...", "Time: ..."
	{regexp.MustCompile(`(?i)^(?:date|when|time)\s*[:\-]\s*(.+)$`), true},
	// Weekday name and everything after it
	{regexp.MustCompile(`(?i)\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b.*$`), false},
	// MM/DD/YYYY
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`), false},
	// Bare clock time, e.g. "7:00 PM"
	{regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)\b`), false},
	// "Month D, YYYY" with optional ordinal suffix
	{regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`), false},
}

// Location matchers, tried in order per line; first hit across all lines
// wins (line-first, then pattern order within the line).
var locationMatchers = []struct {
	re      *regexp.Regexp
	capture bool
}{
	// Labeled prefixes: "Location: ...", "Where: ...", "Room: ...", "Address: ..."
	{regexp.MustCompile(`(?i)^(?:location|where|room|address)\s*[:\-]\s*(.+)$`), true},
	// "at <phrase>" / "@ <phrase>" where the phrase names a venue
	{regexp.MustCompile(`(?i)(?:\bat\b|@)\s+(.*(?:room|center|building|hall|auditorium).*)$`), true},
	// Bare "Room 205"
	{regexp.MustCompile(`(?i)\broom\s*#?\s*\d+\w*`), false},
	// Bare phrase naming a venue keyword
	{regexp.MustCompile(`(?i)[^,;]*\b(?:center|building|hall|auditorium|library)\b[^,;]*`), false},
}

var (
	timeOfDayRe = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)\b`)
	weekdayRe   = regexp.MustCompile(`(?i)^(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s*`)
	ordinalRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

var titleStopWords = []string{"date", "time", "location"}

// Extract runs the heuristic cascade over raw OCR text and returns a
// candidate event with a confidence score in [0.5, 1.0]. It is pure and
// total: any input yields a candidate, missing fields just score lower.
func Extract(text string) CandidateEvent {
	var c CandidateEvent
	confidence := float32(baseConfidence)

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}

	// Title: first of the leading three lines that looks like a headline.
	for i := 0; i < len(lines) && i < 3; i++ {
		if len(lines[i]) <= 5 {
			continue
		}
		lower := strings.ToLower(lines[i])
		stop := false
		for _, w := range titleStopWords {
			if strings.Contains(lower, w) {
				stop = true
				break
			}
		}
		if !stop {
			c.Title = lines[i]
			confidence += titleBonus
			break
		}
	}

	// Date seed: first matcher hit on any line.
	dateOnly := false
	for _, line := range lines {
		seed, ok := matchFirst(dateMatchers, line)
		if !ok {
			continue
		}
		if ts, hasClock, parsed := parseAbsolute(seed); parsed {
			c.StartsAt = &ts
			dateOnly = !hasClock
			confidence += dateParsedBonus
		} else {
			c.StartText = seed
			confidence += dateRawBonus
		}
		break
	}

	// Standalone time-of-day token; merged into a date-only start when one
	// is already held. Merge failure silently keeps the date-only value.
	for _, line := range lines {
		m := timeOfDayRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		confidence += timeBonus
		if c.StartsAt != nil && dateOnly {
			if hour, min, ok := clockFrom(m); ok {
				d := *c.StartsAt
				merged := time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, time.UTC)
				c.StartsAt = &merged
			}
		}
		break
	}

	// Location: first hit across lines, pattern order within a line.
	for _, line := range lines {
		if loc, ok := matchFirst(locationMatchers, line); ok {
			c.Location = loc
			confidence += locationBonus
			break
		}
	}

	// Notes: contact-ish lines, joined in input order.
	var notes []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(line, "@") || strings.Contains(lower, "http") || strings.Contains(lower, "contact") {
			notes = append(notes, line)
		}
	}
	if len(notes) > 0 {
		c.Notes = strings.Join(notes, "\n")
		confidence += notesBonus
	}

	if c.StartsAt != nil {
		end := c.StartsAt.Add(defaultEventDuration)
		c.EndsAt = &end
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	c.Confidence = confidence
	return c
}

func matchFirst(matchers []struct {
	re      *regexp.Regexp
	capture bool
}, line string) (string, bool) {
	for _, m := range matchers {
		if m.capture {
			if sub := m.re.FindStringSubmatch(line); sub != nil {
				return strings.TrimSpace(sub[1]), true
			}
			continue
		}
		if match := m.re.FindString(line); match != "" {
			return strings.TrimSpace(match), true
		}
	}
	return "", false
}

// Layouts tried against a normalized date seed. Clock-bearing layouts come
// first so a seed like "9/15/2024 7:00 PM" keeps its time.
var absoluteLayouts = []struct {
	layout   string
	hasClock bool
}{
	{"1/2/2006 3:04 PM", true},
	{"January 2, 2006 3:04 PM", true},
	{"1/2/2006", false},
	{"January 2, 2006", false},
	{"January 2 2006", false},
	{"Jan 2, 2006", false},
	{"Jan 2 2006", false},
	{"2006-01-02", false},
}

// parseAbsolute attempts to read a matched date seed as an absolute
// timestamp in UTC. Weekday prefixes and ordinal suffixes are stripped
// first ("Friday, September 15th, 2024" -> "September 15, 2024").
func parseAbsolute(seed string) (time.Time, bool, bool) {
	s := weekdayRe.ReplaceAllString(strings.TrimSpace(seed), "")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	for _, l := range absoluteLayouts {
		if ts, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return ts, l.hasClock, true
		}
	}
	return time.Time{}, false, false
}

// clockFrom converts a time-of-day submatch (hh, mm, am/pm) to 24h values.
func clockFrom(m []string) (int, int, bool) {
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	min, err := strconv.Atoi(m[2])
	if err != nil || min > 59 {
		return 0, 0, false
	}
	merid := strings.ToLower(m[3])
	if merid == "pm" && hour < 12 {
		hour += 12
	}
	if merid == "am" && hour == 12 {
		hour = 0
	}
	return hour, min, true
}
