package extract

// AutoCommitThreshold is the minimum confidence for committing a draft
// without user review. Fixed, not configuration.
const AutoCommitThreshold = 0.8

// NeedsConfirmation decides whether a candidate must be held for user
// review. Confirmation is required when confidence is below the threshold,
// or when either the title or any start value is missing — confidence alone
// never green-lights a commit with a missing field.
func NeedsConfirmation(c CandidateEvent) bool {
	if c.Confidence < AutoCommitThreshold {
		return true
	}
	if !c.HasStart() {
		return true
	}
	if c.Title == "" {
		return true
	}
	return false
}
