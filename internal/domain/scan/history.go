package scan

import (
	"context"
	"time"
)

// HistoryEntry is the summary of one completed scan kept in scan history.
type HistoryEntry struct {
	ID             string
	URL            string
	Domain         string
	ScanDate       time.Time
	Score          int
	Level          Severity
	AnomaliesCount int
	ReportPath     string
}

// NewHistoryEntry summarizes report; reportPath is where its JSON document
// was written.
func NewHistoryEntry(report *Report, reportPath string) HistoryEntry {
	return HistoryEntry{
		ID:             report.ID,
		URL:            report.Target.URL(),
		Domain:         report.Target.Domain(),
		ScanDate:       report.ScanDate,
		Score:          report.Assessment.Score,
		Level:          report.Assessment.Level,
		AnomaliesCount: report.Assessment.AnomaliesCount,
		ReportPath:     reportPath,
	}
}

// HistoryFilter narrows a history listing. Zero values mean no filter.
type HistoryFilter struct {
	Domain string
	Limit  int
}

// HistoryRepository stores scan summaries.
type HistoryRepository interface {
	Save(ctx context.Context, entry HistoryEntry) error
	// List returns entries newest first.
	List(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
	Close() error
}

// ReportRepository persists full scan reports.
type ReportRepository interface {
	// Save writes the report under base and returns the written path.
	Save(ctx context.Context, report *Report, base string) (string, error)
	Load(ctx context.Context, path string) (*Report, error)
}
