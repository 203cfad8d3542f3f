package constants

// PipelineState is the canonical state of a message moving through the
// ingestion pipeline.
type PipelineState string

// Stable values (these exact strings appear in logs and API responses).
const (
	StateReceived       PipelineState = "RECEIVED"              // message accepted
	StateOCRDone        PipelineState = "OCR_DONE"              // flyer text recognized
	StateExtracted      PipelineState = "EXTRACTED"             // candidate event built
	StateDraftPersisted PipelineState = "DRAFT_PERSISTED"       // draft row written
	StatePending        PipelineState = "PENDING_CONFIRMATION"  // held for user review
	StateAutoCommitted  PipelineState = "AUTO_COMMIT_TRIGGERED" // commit engine invoked
)
