package application

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	scanapp "github.com/khanhnv2901/sitescan/internal/application/scan"
	"github.com/khanhnv2901/sitescan/internal/checker"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/sitescan/internal/infrastructure/persistence/sqlite"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
)

// Options configures the collectors and stores a Container wires together.
type Options struct {
	ResultsDir string
	UserAgent  string

	HTTPTimeout  time.Duration
	TLSTimeout   time.Duration
	WhoisTimeout time.Duration
	// ScanDeadline bounds the whole collection phase; zero disables it.
	ScanDeadline time.Duration
	Sequential   bool

	// HistoryPath is the SQLite database; empty disables history.
	HistoryPath string

	OnCollectorDone checker.DoneFunc
}

// Container holds the application services and repositories.
// This is a simple dependency injection container
type Container struct {
	// Repositories
	ReportRepo  scan.ReportRepository
	HistoryRepo scan.HistoryRepository

	Runner      *checker.Runner
	ScanService *scanapp.Service
}

// NewContainer creates a new application service container
func NewContainer(ctx context.Context, opts Options) (*Container, error) {
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = consts.DefaultResultsDir
	}

	reportRepo, err := json.NewReportRepository(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create report repository: %w", err)
	}

	httpChecker := checker.NewHTTPChecker()
	if opts.HTTPTimeout > 0 {
		httpChecker.Timeout = opts.HTTPTimeout
	}
	if opts.UserAgent != "" {
		httpChecker.UserAgent = opts.UserAgent
	}
	tlsChecker := checker.NewTLSChecker()
	if opts.TLSTimeout > 0 {
		tlsChecker.Timeout = opts.TLSTimeout
	}
	whoisChecker := checker.NewWhoisChecker()
	if opts.WhoisTimeout > 0 {
		whoisChecker.Timeout = opts.WhoisTimeout
	}

	runner := &checker.Runner{
		HTTP:       httpChecker,
		TLS:        tlsChecker,
		Whois:      whoisChecker,
		Sequential: opts.Sequential,
		Deadline:   opts.ScanDeadline,
		OnDone:     opts.OnCollectorDone,
	}

	c := &Container{
		ReportRepo: reportRepo,
		Runner:     runner,
	}

	var svcOpts []scanapp.Option
	if opts.HistoryPath != "" {
		path := opts.HistoryPath
		if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
			path = filepath.Join(resultsDir, path)
		}
		historyRepo, err := sqlite.NewHistoryRepository(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create history repository: %w", err)
		}
		c.HistoryRepo = historyRepo
		svcOpts = append(svcOpts, scanapp.WithHistory(historyRepo))
	}

	c.ScanService = scanapp.NewService(runner, reportRepo, resultsDir, svcOpts...)
	return c, nil
}

// Close releases the history database, if open.
func (c *Container) Close() error {
	if c.HistoryRepo == nil {
		return nil
	}
	return c.HistoryRepo.Close()
}
