package analysis

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Anomaly titles.
const (
	TitleNoHTTPS             = "No HTTPS"
	TitleCertificateExpired  = "Expired certificate"
	TitleCertificateExpiring = "Certificate expiring soon"
	TitleCertificateRenewal  = "Certificate expires within two months"
	TitleWeakSignature       = "Weak signature algorithm"
	TitleLongRedirectChain   = "Long redirect chain"
	TitleNoHTTPSUpgrade      = "No automatic HTTPS upgrade"
	TitleCrossDomainRedirect = "Cross-domain redirect"
	TitleSmallPage           = "Suspiciously small page"
	TitleLargePage           = "Unusually large page"
	TitleMissingHeaders      = "Missing security headers"
	TitleSomeHeadersMissing  = "Some security headers missing"
	TitleVeryNewDomain       = "Very new domain"
	TitleRecentDomain        = "Recent domain"
)

const (
	certExpiringDays = 30
	certRenewalDays  = 60

	maxRedirectHops = 3

	minPageBytes = 500
	maxPageBytes = 2_000_000

	headersHighThreshold = 3

	veryNewDomainDays = 30
	recentDomainDays  = 90
)

var numbers = message.NewPrinter(language.English)

// trackedHeader pairs a security header with the finding reported when absent.
type trackedHeader struct {
	Name    string
	Missing string
}

// TrackedSecurityHeaders are the headers the security-headers rule checks, in
// reporting order.
var TrackedSecurityHeaders = []trackedHeader{
	{Name: "Strict-Transport-Security", Missing: "HSTS missing"},
	{Name: "Content-Security-Policy", Missing: "CSP missing"},
	{Name: "X-Frame-Options", Missing: "anti-framing protection missing"},
	{Name: "X-Content-Type-Options", Missing: "MIME-sniffing protection missing"},
	{Name: "X-XSS-Protection", Missing: "XSS protection missing"},
}

// Snapshot is the read-only input every rule sees.
type Snapshot struct {
	Target     scan.Target
	Collection scan.Collection
}

// Rule inspects a snapshot and returns the anomalies it detects.
type Rule struct {
	Name     string
	Evaluate func(Snapshot) []scan.Anomaly
}

// Rules is the fixed evaluation order.
var Rules = []Rule{
	{Name: "certificate", Evaluate: CertificateRule},
	{Name: "redirection", Evaluate: RedirectionRule},
	{Name: "html-size", Evaluate: HTMLSizeRule},
	{Name: "security-headers", Evaluate: SecurityHeadersRule},
	{Name: "domain-age", Evaluate: DomainAgeRule},
}

// Evaluate runs every rule in order and concatenates their anomalies.
func Evaluate(snap Snapshot) []scan.Anomaly {
	anomalies := []scan.Anomaly{}
	for _, rule := range Rules {
		anomalies = append(anomalies, rule.Evaluate(snap)...)
	}
	return anomalies
}

// CertificateRule flags missing HTTPS, expired or expiring certificates and
// weak signature algorithms. Absent TLS data is itself a finding.
func CertificateRule(snap Snapshot) []scan.Anomaly {
	tls, ok := snap.Collection.TLS.Record()
	if !ok || !snap.Target.IsSecure() {
		return []scan.Anomaly{{
			Severity:    scan.SeverityCritical,
			Title:       TitleNoHTTPS,
			Description: "The site is not served over HTTPS; traffic is not encrypted",
		}}
	}

	var found []scan.Anomaly
	if tls.HasExpired {
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityCritical,
			Title:       TitleCertificateExpired,
			Description: "The TLS certificate has expired; connections are not trustworthy",
		})
	}

	days := tls.DaysUntilExpiry
	switch {
	case days > 0 && days <= certExpiringDays:
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityHigh,
			Title:       TitleCertificateExpiring,
			Description: fmt.Sprintf("The certificate expires in %d days", days),
		})
	case days > certExpiringDays && days <= certRenewalDays:
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityMedium,
			Title:       TitleCertificateRenewal,
			Description: fmt.Sprintf("The certificate expires in %d days; renewal recommended", days),
		})
	}

	algo := strings.ToLower(tls.SignatureAlgorithm)
	if strings.Contains(algo, "md5") || strings.Contains(algo, "sha1") {
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityHigh,
			Title:       TitleWeakSignature,
			Description: fmt.Sprintf("Certificate signed with %s, which is considered insecure", algo),
		})
	}

	return found
}

// RedirectionRule flags long redirect chains, plain http without an https
// hop, and redirects that land on another host. Hosts are compared literally,
// so www.example.com and example.com differ.
func RedirectionRule(snap Snapshot) []scan.Anomaly {
	rec, ok := snap.Collection.HTTP.Record()
	if !ok {
		return nil
	}

	var found []scan.Anomaly
	if n := len(rec.Redirects); n > maxRedirectHops {
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityMedium,
			Title:       TitleLongRedirectChain,
			Description: fmt.Sprintf("%d redirects detected, which may indicate cloaking", n),
		})
	}

	if snap.Target.Scheme() == scan.SchemeHTTP && !anyHopSecure(rec.Redirects) {
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityMedium,
			Title:       TitleNoHTTPSUpgrade,
			Description: "The site does not enforce HTTPS; traffic can be intercepted",
		})
	}

	if finalHost := hostOf(rec.FinalURL); finalHost != "" && finalHost != snap.Target.Domain() {
		found = append(found, scan.Anomaly{
			Severity:    scan.SeverityMedium,
			Title:       TitleCrossDomainRedirect,
			Description: fmt.Sprintf("Redirected from %s to %s", snap.Target.Domain(), finalHost),
		})
	}

	return found
}

// HTMLSizeRule flags near-empty and oversized pages.
func HTMLSizeRule(snap Snapshot) []scan.Anomaly {
	rec, ok := snap.Collection.HTTP.Record()
	if !ok {
		return nil
	}

	switch size := rec.HTMLSize; {
	case size < minPageBytes:
		return []scan.Anomaly{{
			Severity:    scan.SeverityMedium,
			Title:       TitleSmallPage,
			Description: fmt.Sprintf("Only %d bytes, which may indicate an empty or error page", size),
		}}
	case size > maxPageBytes:
		return []scan.Anomaly{{
			Severity:    scan.SeverityLow,
			Title:       TitleLargePage,
			Description: numbers.Sprintf("%d bytes, which may hurt performance", size),
		}}
	}
	return nil
}

// SecurityHeadersRule reports absent tracked headers: HIGH when three or more
// are missing, MEDIUM for one or two.
func SecurityHeadersRule(snap Snapshot) []scan.Anomaly {
	rec, ok := snap.Collection.HTTP.Record()
	if !ok {
		return nil
	}

	missing := MissingSecurityHeaders(rec)
	switch {
	case len(missing) >= headersHighThreshold:
		return []scan.Anomaly{{
			Severity: scan.SeverityHigh,
			Title:    TitleMissingHeaders,
			Description: fmt.Sprintf("%d/%d headers absent: %s",
				len(missing), len(TrackedSecurityHeaders), strings.Join(missing, ", ")),
		}}
	case len(missing) > 0:
		return []scan.Anomaly{{
			Severity:    scan.SeverityMedium,
			Title:       TitleSomeHeadersMissing,
			Description: strings.Join(missing, ", "),
		}}
	}
	return nil
}

// MissingSecurityHeaders returns the findings for every tracked header the
// response lacks, in tracking order.
func MissingSecurityHeaders(rec scan.HTTPRecord) []string {
	var missing []string
	for _, h := range TrackedSecurityHeaders {
		if !rec.HasHeader(h.Name) {
			missing = append(missing, h.Missing)
		}
	}
	return missing
}

// DomainAgeRule flags recently registered domains, a weak phishing signal.
func DomainAgeRule(snap Snapshot) []scan.Anomaly {
	rec, ok := snap.Collection.Whois.Record()
	if !ok || rec.AgeDays == nil {
		return nil
	}

	age := *rec.AgeDays
	switch {
	case age < veryNewDomainDays:
		return []scan.Anomaly{{
			Severity:    scan.SeverityHigh,
			Title:       TitleVeryNewDomain,
			Description: fmt.Sprintf("Registered %d days ago, a weak phishing signal", age),
		}}
	case age < recentDomainDays:
		return []scan.Anomaly{{
			Severity:    scan.SeverityMedium,
			Title:       TitleRecentDomain,
			Description: fmt.Sprintf("Registered %d days ago", age),
		}}
	}
	return nil
}

func anyHopSecure(redirects []string) bool {
	for _, hop := range redirects {
		if strings.Contains(hop, scan.SchemeHTTPS+"://") {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
