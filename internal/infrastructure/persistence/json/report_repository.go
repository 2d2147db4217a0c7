package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
	"github.com/khanhnv2901/sitescan/internal/shared/security"
)

// reportDTO mirrors the scan document written next to the text report.
type reportDTO struct {
	URL        string        `json:"url"`
	Domain     string        `json:"domain"`
	ScanDate   string        `json:"scan_date"`
	Collection collectionDTO `json:"collection"`
	Analysis   analysisDTO   `json:"analysis"`
	Anomalies  []anomalyDTO  `json:"anomalies"`
}

type collectionDTO struct {
	HTTP          *httpDTO          `json:"http,omitempty"`
	HTMLStructure *htmlStructureDTO `json:"html_structure,omitempty"`
	HTTPError     string            `json:"http_error,omitempty"`
	TLS           *tlsDTO           `json:"tls,omitempty"`
	TLSError      string            `json:"tls_error,omitempty"`
	Whois         *whoisDTO         `json:"whois,omitempty"`
	WhoisError    string            `json:"whois_error,omitempty"`
}

type httpDTO struct {
	StatusCode  int               `json:"status_code"`
	FinalURL    string            `json:"final_url"`
	Redirects   []string          `json:"redirects"`
	Headers     map[string]string `json:"headers"`
	HTMLSize    int64             `json:"html_size"`
	ContentType string            `json:"content_type"`
}

type htmlStructureDTO struct {
	Title    *string `json:"title"`
	MetaTags int     `json:"meta_tags"`
	Scripts  int     `json:"scripts"`
	Iframes  int     `json:"iframes"`
	Forms    int     `json:"forms"`
}

type tlsDTO struct {
	Subject            map[string]string `json:"subject"`
	Issuer             map[string]string `json:"issuer"`
	Version            int               `json:"version"`
	SerialNumber       string            `json:"serial_number"`
	NotBefore          string            `json:"not_before"`
	NotAfter           string            `json:"not_after"`
	DaysUntilExpiry    int               `json:"days_until_expiry"`
	SignatureAlgorithm string            `json:"signature_algorithm"`
	HasExpired         bool              `json:"has_expired"`
}

type whoisDTO struct {
	DomainName      string   `json:"domain_name"`
	Registrar       *string  `json:"registrar"`
	CreationDate    *string  `json:"creation_date"`
	ExpirationDate  *string  `json:"expiration_date"`
	UpdatedDate     *string  `json:"updated_date"`
	AgeDays         *int     `json:"age_days"`
	DaysUntilExpiry *int     `json:"days_until_expiry"`
	NameServers     []string `json:"name_servers"`
	Status          []string `json:"status"`
}

type analysisDTO struct {
	RiskScore      int    `json:"risk_score"`
	RiskLevel      string `json:"risk_level"`
	AnomaliesCount int    `json:"anomalies_count"`
}

type anomalyDTO struct {
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ReportRepository writes scan documents as indented JSON files.
type ReportRepository struct {
	resultsDir string
	mu         sync.RWMutex
}

// NewReportRepository creates the results directory if needed.
func NewReportRepository(resultsDir string) (*ReportRepository, error) {
	if resultsDir == "" {
		return nil, fmt.Errorf("results directory cannot be empty")
	}

	if err := os.MkdirAll(resultsDir, consts.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	return &ReportRepository{resultsDir: resultsDir}, nil
}

// Save writes <base>.json. Relative bases are resolved inside the results
// directory.
func (r *ReportRepository) Save(ctx context.Context, report *scan.Report, base string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved, err := security.ResolveOutputBase(r.resultsDir, base)
	if err != nil {
		return "", fmt.Errorf("invalid output name %q: %w", base, err)
	}
	filePath := resolved + ".json"

	data, err := Marshal(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, consts.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrRepositoryOperation, err)
	}

	return filePath, nil
}

// Load reads a scan document written by Save.
func (r *ReportRepository) Load(ctx context.Context, path string) (*scan.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", sharedErrors.ErrScanNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrRepositoryOperation, err)
	}

	return Unmarshal(data)
}

// Marshal renders a report as the indented JSON document.
func Marshal(report *scan.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDTO(report)); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a scan document.
func Unmarshal(data []byte) (*scan.Report, error) {
	var dto reportDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	report, err := fromDTO(dto)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	return report, nil
}

func toDTO(report *scan.Report) reportDTO {
	dto := reportDTO{
		URL:      report.Target.URL(),
		Domain:   report.Target.Domain(),
		ScanDate: report.ScanDate.Format(time.RFC3339),
		Analysis: analysisDTO{
			RiskScore:      report.Assessment.Score,
			RiskLevel:      string(report.Assessment.Level),
			AnomaliesCount: report.Assessment.AnomaliesCount,
		},
		Anomalies: make([]anomalyDTO, 0, len(report.Anomalies)),
	}

	for _, a := range report.Anomalies {
		dto.Anomalies = append(dto.Anomalies, anomalyDTO{
			Severity:    string(a.Severity),
			Title:       a.Title,
			Description: a.Description,
		})
	}

	coll := report.Collection
	if rec, ok := coll.HTTP.Record(); ok {
		dto.Collection.HTTP = &httpDTO{
			StatusCode:  rec.StatusCode,
			FinalURL:    rec.FinalURL,
			Redirects:   nonNil(rec.Redirects),
			Headers:     flattenHeaders(rec.Headers),
			HTMLSize:    rec.HTMLSize,
			ContentType: rec.ContentType,
		}
		dto.Collection.HTMLStructure = &htmlStructureDTO{
			Title:    rec.Structure.Title,
			MetaTags: rec.Structure.MetaTags,
			Scripts:  rec.Structure.Scripts,
			Iframes:  rec.Structure.Iframes,
			Forms:    rec.Structure.Forms,
		}
	} else {
		dto.Collection.HTTPError, _ = coll.HTTP.Failure()
	}

	if rec, ok := coll.TLS.Record(); ok {
		dto.Collection.TLS = &tlsDTO{
			Subject:            rec.Subject,
			Issuer:             rec.Issuer,
			Version:            rec.Version,
			SerialNumber:       rec.SerialNumber,
			NotBefore:          rec.NotBefore.UTC().Format(time.RFC3339),
			NotAfter:           rec.NotAfter.UTC().Format(time.RFC3339),
			DaysUntilExpiry:    rec.DaysUntilExpiry,
			SignatureAlgorithm: rec.SignatureAlgorithm,
			HasExpired:         rec.HasExpired,
		}
	} else {
		dto.Collection.TLSError, _ = coll.TLS.Failure()
	}

	if rec, ok := coll.Whois.Record(); ok {
		dto.Collection.Whois = &whoisDTO{
			DomainName:      rec.DomainName,
			Registrar:       rec.Registrar,
			CreationDate:    formatOptional(rec.CreationDate),
			ExpirationDate:  formatOptional(rec.ExpirationDate),
			UpdatedDate:     formatOptional(rec.UpdatedDate),
			AgeDays:         rec.AgeDays,
			DaysUntilExpiry: rec.DaysUntilExpiry,
			NameServers:     nonNil(rec.NameServers),
			Status:          nonNil(rec.Status),
		}
	} else {
		dto.Collection.WhoisError, _ = coll.Whois.Failure()
	}

	return dto
}

func fromDTO(dto reportDTO) (*scan.Report, error) {
	target, err := scan.NewTarget(dto.URL)
	if err != nil {
		return nil, err
	}
	scanDate, err := time.Parse(time.RFC3339, dto.ScanDate)
	if err != nil {
		return nil, fmt.Errorf("scan_date: %w", err)
	}

	report := &scan.Report{
		Target:   target,
		ScanDate: scanDate,
		Assessment: scan.Assessment{
			Score:          dto.Analysis.RiskScore,
			Level:          scan.Severity(dto.Analysis.RiskLevel),
			AnomaliesCount: dto.Analysis.AnomaliesCount,
		},
		Anomalies: make([]scan.Anomaly, 0, len(dto.Anomalies)),
	}
	for _, a := range dto.Anomalies {
		report.Anomalies = append(report.Anomalies, scan.Anomaly{
			Severity:    scan.Severity(a.Severity),
			Title:       a.Title,
			Description: a.Description,
		})
	}

	c := dto.Collection
	if c.HTTP != nil {
		rec := scan.HTTPRecord{
			StatusCode:  c.HTTP.StatusCode,
			FinalURL:    c.HTTP.FinalURL,
			Redirects:   nonNil(c.HTTP.Redirects),
			Headers:     expandHeaders(c.HTTP.Headers),
			HTMLSize:    c.HTTP.HTMLSize,
			ContentType: c.HTTP.ContentType,
		}
		if s := c.HTMLStructure; s != nil {
			rec.Structure = scan.HTMLStructure{
				Title:    s.Title,
				MetaTags: s.MetaTags,
				Scripts:  s.Scripts,
				Iframes:  s.Iframes,
				Forms:    s.Forms,
			}
		}
		report.Collection.HTTP = scan.Succeeded(rec)
	} else {
		report.Collection.HTTP = scan.Failed[scan.HTTPRecord](c.HTTPError)
	}

	if c.TLS != nil {
		notBefore, err := time.Parse(time.RFC3339, c.TLS.NotBefore)
		if err != nil {
			return nil, fmt.Errorf("tls.not_before: %w", err)
		}
		notAfter, err := time.Parse(time.RFC3339, c.TLS.NotAfter)
		if err != nil {
			return nil, fmt.Errorf("tls.not_after: %w", err)
		}
		report.Collection.TLS = scan.Succeeded(scan.TLSRecord{
			Certificate: scan.Certificate{
				Subject:            c.TLS.Subject,
				Issuer:             c.TLS.Issuer,
				Version:            c.TLS.Version,
				SerialNumber:       c.TLS.SerialNumber,
				NotBefore:          notBefore,
				NotAfter:           notAfter,
				SignatureAlgorithm: c.TLS.SignatureAlgorithm,
			},
			HasExpired:      c.TLS.HasExpired,
			DaysUntilExpiry: c.TLS.DaysUntilExpiry,
		})
	} else {
		report.Collection.TLS = scan.Failed[scan.TLSRecord](c.TLSError)
	}

	if w := c.Whois; w != nil {
		rec := scan.WhoisRecord{
			DomainName:      w.DomainName,
			Registrar:       w.Registrar,
			AgeDays:         w.AgeDays,
			DaysUntilExpiry: w.DaysUntilExpiry,
			NameServers:     nonNil(w.NameServers),
			Status:          nonNil(w.Status),
		}
		if rec.CreationDate, err = parseOptional(w.CreationDate); err != nil {
			return nil, fmt.Errorf("whois.creation_date: %w", err)
		}
		if rec.ExpirationDate, err = parseOptional(w.ExpirationDate); err != nil {
			return nil, fmt.Errorf("whois.expiration_date: %w", err)
		}
		if rec.UpdatedDate, err = parseOptional(w.UpdatedDate); err != nil {
			return nil, fmt.Errorf("whois.updated_date: %w", err)
		}
		report.Collection.Whois = scan.Succeeded(rec)
	} else {
		report.Collection.Whois = scan.Failed[scan.WhoisRecord](c.WhoisError)
	}

	return report, nil
}

// flattenHeaders joins repeated header values with ", ".
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

func expandHeaders(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h[k] = []string{v}
	}
	return h
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseOptional(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
