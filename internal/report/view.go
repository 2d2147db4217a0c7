package report

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/khanhnv2901/sitescan/internal/analysis"
	"github.com/khanhnv2901/sitescan/internal/domain/scan"
)

const maxNameServers = 5

var severityColors = map[scan.Severity]*color.Color{
	scan.SeverityCritical: color.New(color.FgRed, color.Bold),
	scan.SeverityHigh:     color.New(color.FgRed),
	scan.SeverityMedium:   color.New(color.FgYellow),
	scan.SeverityLow:      color.New(color.FgGreen),
}

var (
	present = color.New(color.FgGreen).SprintFunc()
	absent  = color.New(color.FgRed).SprintFunc()
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Paint colors s for sev. Colors are dropped automatically when output is
// not a terminal.
func Paint(sev scan.Severity, s string) string {
	if c, ok := severityColors[sev]; ok {
		return c.Sprint(s)
	}
	return s
}

// WriteView renders a saved report for the terminal with anomalies grouped
// by severity, most severe first.
func WriteView(w io.Writer, r *scan.Report) error {
	p := &printer{w: w}
	rule := strings.Repeat("=", ruleWidth)

	p.line(rule)
	p.line(heading("SCAN RESULTS: " + r.Target.URL()))
	p.line(rule)
	p.linef("Domain:    %s", r.Target.Domain())
	p.linef("Scan date: %s", r.ScanDate.Format("2006-01-02 15:04:05 MST"))
	p.linef("Risk:      %s (score %d, %d anomalies)",
		Paint(r.Assessment.Level, string(r.Assessment.Level)), r.Assessment.Score, r.Assessment.AnomaliesCount)

	p.line("")
	p.line(heading("ANOMALIES"))
	if len(r.Anomalies) == 0 {
		p.line("  none")
	}
	for _, sev := range scan.Severities {
		group := bySeverity(r.Anomalies, sev)
		if len(group) == 0 {
			continue
		}
		p.linef("  %s (%d)", Paint(sev, string(sev)), len(group))
		for _, a := range group {
			p.linef("    - %s: %s", a.Title, a.Description)
		}
	}

	p.line("")
	p.line(heading("HTTP"))
	if rec, ok := r.Collection.HTTP.Record(); ok {
		p.linef("  Status:       %d", rec.StatusCode)
		p.linef("  Final URL:    %s", rec.FinalURL)
		p.linef("  Redirects:    %d", len(rec.Redirects))
		for _, hop := range rec.Redirects {
			p.linef("    -> %s", hop)
		}
		p.line(numbers.Sprintf("  Size:         %d bytes", rec.HTMLSize))
		p.linef("  Content type: %s", rec.ContentType)

		s := rec.Structure
		p.line("  HTML structure:")
		p.linef("    Title:   %s", orNA(deref(s.Title)))
		p.linef("    Meta:    %d", s.MetaTags)
		p.linef("    Scripts: %d", s.Scripts)
		p.linef("    Iframes: %d", s.Iframes)
		p.linef("    Forms:   %d", s.Forms)

		p.line("  Security headers:")
		for _, h := range analysis.TrackedSecurityHeaders {
			mark := absent("[ ]")
			if rec.HasHeader(h.Name) {
				mark = present("[x]")
			}
			p.linef("    %s %s", mark, h.Name)
		}
	} else {
		reason, _ := r.Collection.HTTP.Failure()
		p.linef("  error: %s", reason)
	}

	p.line("")
	p.line(heading("TLS"))
	if rec, ok := r.Collection.TLS.Record(); ok {
		p.linef("  Subject:   %s", orNA(rec.Subject["CN"]))
		p.linef("  Issuer:    %s", orNA(rec.Issuer["O"]))
		p.linef("  Valid:     %s -> %s", rec.NotBefore.Format("2006-01-02"), rec.NotAfter.Format("2006-01-02"))
		p.linef("  Expires:   %d days", rec.DaysUntilExpiry)
		p.linef("  Expired:   %t", rec.HasExpired)
		p.linef("  Algorithm: %s", rec.SignatureAlgorithm)
	} else {
		reason, _ := r.Collection.TLS.Failure()
		p.linef("  error: %s", reason)
	}

	p.line("")
	p.line(heading("WHOIS"))
	if rec, ok := r.Collection.Whois.Record(); ok {
		p.linef("  Domain:    %s", orNA(rec.DomainName))
		p.linef("  Registrar: %s", orNA(deref(rec.Registrar)))
		p.linef("  Created:   %s", optionalDate(rec.CreationDate))
		p.linef("  Expires:   %s", optionalDate(rec.ExpirationDate))
		p.linef("  Age:       %s days", optionalInt(rec.AgeDays))
		if len(rec.NameServers) > 0 {
			p.line("  Name servers:")
			for i, ns := range rec.NameServers {
				if i == maxNameServers {
					p.linef("    ... %d more", len(rec.NameServers)-maxNameServers)
					break
				}
				p.linef("    %s", ns)
			}
		}
	} else {
		reason, _ := r.Collection.Whois.Failure()
		p.linef("  error: %s", reason)
	}

	return p.err
}

func bySeverity(anomalies []scan.Anomaly, sev scan.Severity) []scan.Anomaly {
	var out []scan.Anomaly
	for _, a := range anomalies {
		if a.Severity == sev {
			out = append(out, a)
		}
	}
	return out
}
