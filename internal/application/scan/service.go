package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/khanhnv2901/sitescan/internal/analysis"
	"github.com/khanhnv2901/sitescan/internal/checker"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/logger"
	"github.com/khanhnv2901/sitescan/internal/report"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
	"github.com/khanhnv2901/sitescan/internal/shared/security"
	"go.uber.org/zap"
)

// Collector gathers every source for one target.
type Collector interface {
	Run(ctx context.Context, target scan.Target, now time.Time) scan.Collection
}

var _ Collector = (*checker.Runner)(nil)

// Service coordinates a scan: collection, rule evaluation, aggregation and
// persistence of the resulting artifacts.
type Service struct {
	collector  Collector
	reports    scan.ReportRepository
	history    scan.HistoryRepository
	resultsDir string
	clock      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of evaluation time.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithHistory records every persisted scan in repo.
func WithHistory(repo scan.HistoryRepository) Option {
	return func(s *Service) { s.history = repo }
}

// NewService creates a scan service. reports may be nil when results are
// never persisted.
func NewService(collector Collector, reports scan.ReportRepository, resultsDir string, opts ...Option) *Service {
	s := &Service{
		collector:  collector,
		reports:    reports,
		resultsDir: resultsDir,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan validates rawTarget, collects, evaluates and aggregates. Collector
// failures are part of the report; only an invalid target or a canceled
// context is returned as an error.
func (s *Service) Scan(ctx context.Context, rawTarget string) (*scan.Report, error) {
	target, err := scan.NewTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	ctx = logger.WithFields(ctx, zap.String("target", target.URL()))
	logger.Info(ctx, "scan started")

	coll := s.collector.Run(ctx, target, now)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	return Evaluate(target, coll, now), nil
}

// Evaluate runs the rules over a finished collection and builds the report.
func Evaluate(target scan.Target, coll scan.Collection, now time.Time) *scan.Report {
	anomalies := analysis.Evaluate(analysis.Snapshot{Target: target, Collection: coll})
	return &scan.Report{
		ID:         uuid.NewString(),
		Target:     target,
		ScanDate:   now,
		Collection: coll,
		Anomalies:  anomalies,
		Assessment: analysis.Aggregate(anomalies),
	}
}

// Artifacts lists the files written for one scan.
type Artifacts struct {
	JSON string
	Text string
	PDF  string
}

// PersistOptions controls which artifacts are written.
type PersistOptions struct {
	// Base is the output name without extension; empty derives one.
	Base string
	PDF  bool
}

// DefaultBaseName derives scan_<domain>_<YYYYmmdd_HHMMSS>.
func DefaultBaseName(r *scan.Report) string {
	return fmt.Sprintf("scan_%s_%s",
		security.SafeFileComponent(r.Target.Domain()),
		r.ScanDate.Format(consts.ReportTimestampLayout))
}

// Persist writes the JSON document, the text report and optionally a PDF,
// then records the scan in history. A history failure is logged, not
// returned: the artifacts are already on disk.
func (s *Service) Persist(ctx context.Context, r *scan.Report, opts PersistOptions) (Artifacts, error) {
	var out Artifacts
	if s.reports == nil {
		return out, errors.New("no report repository configured")
	}

	base := opts.Base
	if base == "" {
		base = DefaultBaseName(r)
	}
	resolved, err := security.ResolveOutputBase(s.resultsDir, base)
	if err != nil {
		return out, fmt.Errorf("invalid output name %q: %w", base, err)
	}

	out.JSON, err = s.reports.Save(ctx, r, resolved)
	if err != nil {
		return out, fmt.Errorf("failed to save JSON report: %w", err)
	}

	out.Text = resolved + ".txt"
	if err := os.MkdirAll(filepath.Dir(out.Text), consts.DefaultDirPerm); err != nil {
		return out, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out.Text, []byte(report.Text(r)), consts.DefaultFilePerm); err != nil {
		return out, fmt.Errorf("failed to save text report: %w", err)
	}

	if opts.PDF {
		out.PDF = resolved + ".pdf"
		if err := report.WritePDF(out.PDF, r); err != nil {
			return out, err
		}
	}

	if s.history != nil {
		if err := s.history.Save(ctx, scan.NewHistoryEntry(r, out.JSON)); err != nil {
			logger.Warn(ctx, "failed to record scan history", zap.Error(err))
		}
	}

	return out, nil
}

// History lists recorded scans, newest first.
func (s *Service) History(ctx context.Context, filter scan.HistoryFilter) ([]scan.HistoryEntry, error) {
	if s.history == nil {
		return nil, errors.New("scan history is disabled")
	}
	return s.history.List(ctx, filter)
}

// Load reads a saved JSON document.
func (s *Service) Load(ctx context.Context, path string) (*scan.Report, error) {
	if s.reports == nil {
		return nil, errors.New("no report repository configured")
	}
	return s.reports.Load(ctx, path)
}
