package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/gramcal/gramcal/internal/repository"
)

// Service is a tiny façade over the committed-event repository that
// produces XLSX bytes for exports.
type Service struct {
	committed repository.CommittedEventRepository
	drafts    repository.DraftRepository
	logger    *slog.Logger
}

func NewService(committed repository.CommittedEventRepository, drafts repository.DraftRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{committed: committed, drafts: drafts, logger: logger}
}

// ExportCommittedXLSX returns an XLSX workbook (as bytes) of the user's
// committed events in the given window.
// If only from is provided -> from..today (inclusive).
// If neither is provided   -> all committed events for the user.
func (s *Service) ExportCommittedXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	recs, err := s.committed.ListByUser(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query committed events: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Events"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Committed At",
		"Event Title",
		"Starts",
		"Location",
		"Provider Event ID",
		"Calendar Link",
		"Draft Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		// Resolve the originating draft when it still exists (weak ref).
		title := ""
		starts := ""
		location := ""
		confidence := ""
		if r.DraftEventID != nil {
			if d, err := s.drafts.GetByID(ctx, *r.DraftEventID); err == nil && d != nil {
				title = d.Title
				location = d.Location
				confidence = fmt.Sprintf("%.2f", d.Confidence)
				if d.StartsAt != nil {
					starts = d.StartsAt.Format(time.RFC3339)
				} else {
					starts = d.StartText
				}
			}
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.Format("2006-01-02 15:04"))
		write(2, truncate(title, 80))
		write(3, starts)
		write(4, truncate(location, 60))
		write(5, r.ProviderEventID)
		write(6, r.HTMLLink)
		write(7, confidence)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 18) // committed at
	_ = f.SetColWidth(sheet, "B", "B", 36) // title
	_ = f.SetColWidth(sheet, "C", "C", 22) // starts
	_ = f.SetColWidth(sheet, "D", "D", 30) // location
	_ = f.SetColWidth(sheet, "E", "F", 44) // ids and link

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID.String(),
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
