package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
)

// scan_date is stored fixed-width in UTC so text ordering matches time ordering.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

// HistoryRepository implements scan.HistoryRepository on a SQLite file.
type HistoryRepository struct {
	db *sql.DB
}

var _ scan.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository opens (creating if needed) the database at path and
// migrates the schema.
func NewHistoryRepository(ctx context.Context, path string) (*HistoryRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("history path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	repo := &HistoryRepository{db: db}
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}

// Close closes the database connection.
func (r *HistoryRepository) Close() error { return r.db.Close() }

func (r *HistoryRepository) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS scans (
	id              TEXT PRIMARY KEY,
	url             TEXT NOT NULL,
	domain          TEXT NOT NULL,
	scan_date       TEXT NOT NULL,
	risk_score      INTEGER NOT NULL,
	risk_level      TEXT NOT NULL,
	anomalies_count INTEGER NOT NULL,
	report_path     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_scans_domain_scan_date ON scans (domain, scan_date DESC);
CREATE INDEX IF NOT EXISTS idx_scans_scan_date ON scans (scan_date DESC);
`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save records one scan summary.
func (r *HistoryRepository) Save(ctx context.Context, entry scan.HistoryEntry) error {
	query := `
INSERT INTO scans (id, url, domain, scan_date, risk_score, risk_level, anomalies_count, report_path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.URL,
		entry.Domain,
		entry.ScanDate.UTC().Format(dateLayout),
		entry.Score,
		string(entry.Level),
		entry.AnomaliesCount,
		entry.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("%w: insert scan: %v", sharedErrors.ErrRepositoryOperation, err)
	}
	return nil
}

// List returns entries newest first, optionally for one domain.
func (r *HistoryRepository) List(ctx context.Context, filter scan.HistoryFilter) ([]scan.HistoryEntry, error) {
	query := `SELECT id, url, domain, scan_date, risk_score, risk_level, anomalies_count, report_path FROM scans`
	var args []any
	if filter.Domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, filter.Domain)
	}
	query += ` ORDER BY scan_date DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list scans: %v", sharedErrors.ErrRepositoryOperation, err)
	}
	defer rows.Close()

	entries := []scan.HistoryEntry{}
	for rows.Next() {
		var (
			e        scan.HistoryEntry
			scanDate string
			level    string
		)
		if err := rows.Scan(&e.ID, &e.URL, &e.Domain, &scanDate, &e.Score, &level, &e.AnomaliesCount, &e.ReportPath); err != nil {
			return nil, fmt.Errorf("%w: scan row: %v", sharedErrors.ErrRepositoryOperation, err)
		}
		e.ScanDate, err = time.Parse(dateLayout, scanDate)
		if err != nil {
			return nil, fmt.Errorf("%w: scan_date %q: %v", sharedErrors.ErrDeserializationFailed, scanDate, err)
		}
		e.Level = scan.Severity(level)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate scans: %v", sharedErrors.ErrRepositoryOperation, err)
	}
	return entries, nil
}
