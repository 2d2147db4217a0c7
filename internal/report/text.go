// Package report renders scan reports for people: the plain-text report
// saved next to the JSON document, the grouped terminal view, and PDF.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ruleWidth = 80

var numbers = message.NewPrinter(language.English)

var severityMarkers = map[scan.Severity]string{
	scan.SeverityCritical: "[!!!!]",
	scan.SeverityHigh:     "[!!! ]",
	scan.SeverityMedium:   "[!!  ]",
	scan.SeverityLow:      "[!   ]",
}

func marker(sev scan.Severity) string {
	if m, ok := severityMarkers[sev]; ok {
		return m
	}
	return "[    ]"
}

// Text renders the human-readable report.
func Text(r *scan.Report) string {
	var b strings.Builder
	_ = WriteText(&b, r)
	return b.String()
}

// WriteText writes the human-readable report to w.
func WriteText(w io.Writer, r *scan.Report) error {
	p := &printer{w: w}
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	p.line(heavy)
	p.line("EXTERNAL SCAN REPORT")
	p.line(heavy)
	p.linef("\nDate: %s", r.ScanDate.Format(time.RFC3339))
	p.linef("URL: %s", r.Target.URL())
	p.linef("Domain: %s", r.Target.Domain())

	p.linef("\n%s RISK LEVEL: %s", marker(r.Assessment.Level), r.Assessment.Level)
	p.linef("Score: %d", r.Assessment.Score)

	p.linef("\n%s", heavy)
	p.linef("ANOMALIES DETECTED: %d", len(r.Anomalies))
	p.line(light)
	if len(r.Anomalies) == 0 {
		p.line("\nNo major anomalies detected")
	}
	for i, a := range r.Anomalies {
		p.linef("\n%d. %s [%s] %s", i+1, marker(a.Severity), a.Severity, a.Title)
		p.linef("   %s", a.Description)
	}

	p.linef("\n%s", heavy)
	p.line("COLLECTED DATA")
	p.line(light)

	if rec, ok := r.Collection.HTTP.Record(); ok {
		p.line("\nHTTP/HTTPS:")
		p.linef("   Status: %d", rec.StatusCode)
		p.line(numbers.Sprintf("   HTML size: %d bytes", rec.HTMLSize))
		p.linef("   Redirects: %d", len(rec.Redirects))
	} else {
		reason, _ := r.Collection.HTTP.Failure()
		p.linef("\nHTTP/HTTPS: unavailable (%s)", reason)
	}

	if rec, ok := r.Collection.TLS.Record(); ok {
		p.line("\nTLS certificate:")
		p.linef("   Issuer: %s", orNA(rec.Issuer["O"]))
		p.linef("   Expires in: %d days", rec.DaysUntilExpiry)
		p.linef("   Algorithm: %s", rec.SignatureAlgorithm)
	} else {
		reason, _ := r.Collection.TLS.Failure()
		p.linef("\nTLS certificate: unavailable (%s)", reason)
	}

	if rec, ok := r.Collection.Whois.Record(); ok {
		p.line("\nWHOIS:")
		p.linef("   Registrar: %s", orNA(deref(rec.Registrar)))
		p.linef("   Age: %s days", optionalInt(rec.AgeDays))
		p.linef("   Expires in: %s days", optionalInt(rec.DaysUntilExpiry))
	} else {
		reason, _ := r.Collection.Whois.Failure()
		p.linef("\nWHOIS: unavailable (%s)", reason)
	}

	p.linef("\n%s", heavy)
	return p.err
}

// printer remembers the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s+"\n")
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return "N/A"
	}
	return t.Format("2006-01-02")
}
