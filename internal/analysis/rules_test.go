package analysis

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
)

var evalTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func allSecurityHeaders() http.Header {
	h := http.Header{}
	for _, tracked := range TrackedSecurityHeaders {
		h.Set(tracked.Name, "set")
	}
	return h
}

func healthyHTTP(finalURL string) scan.HTTPRecord {
	return scan.HTTPRecord{
		StatusCode:  200,
		FinalURL:    finalURL,
		Redirects:   []string{},
		Headers:     allSecurityHeaders(),
		HTMLSize:    800,
		ContentType: "text/html",
	}
}

func tlsWithDays(days int, algo string) scan.TLSRecord {
	return scan.NewTLSRecord(scan.Certificate{
		NotBefore:          evalTime.AddDate(0, 0, -30),
		NotAfter:           evalTime.AddDate(0, 0, days),
		SignatureAlgorithm: algo,
	}, evalTime)
}

func whoisWithAge(days int) scan.WhoisRecord {
	return scan.NewWhoisRecord(scan.WhoisData{
		DomainName:    "example.com",
		CreationDates: []time.Time{evalTime.AddDate(0, 0, -days)},
	}, evalTime)
}

func titles(anomalies []scan.Anomaly) []string {
	out := make([]string, len(anomalies))
	for i, a := range anomalies {
		out[i] = a.Title
	}
	return out
}

func TestCertificateRuleNoTLS(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "plain http",
			snap: Snapshot{Target: scan.MustTarget("http://example.com")},
		},
		{
			name: "tls collection failed",
			snap: Snapshot{
				Target:     scan.MustTarget("https://example.com"),
				Collection: scan.Collection{TLS: scan.Failed[scan.TLSRecord]("connection refused")},
			},
		},
		{
			name: "tls never collected",
			snap: Snapshot{Target: scan.MustTarget("https://example.com")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CertificateRule(tt.snap)
			if len(got) != 1 {
				t.Fatalf("expected 1 anomaly, got %d: %v", len(got), titles(got))
			}
			if got[0].Severity != scan.SeverityCritical || got[0].Title != TitleNoHTTPS {
				t.Fatalf("unexpected anomaly %+v", got[0])
			}
		})
	}
}

func TestCertificateRuleExpiryBoundaries(t *testing.T) {
	tests := []struct {
		days      int
		wantTitle string
		wantSev   scan.Severity
	}{
		{days: 1, wantTitle: TitleCertificateExpiring, wantSev: scan.SeverityHigh},
		{days: 30, wantTitle: TitleCertificateExpiring, wantSev: scan.SeverityHigh},
		{days: 31, wantTitle: TitleCertificateRenewal, wantSev: scan.SeverityMedium},
		{days: 60, wantTitle: TitleCertificateRenewal, wantSev: scan.SeverityMedium},
		{days: 61},
		{days: 120},
	}

	target := scan.MustTarget("https://example.com")
	for _, tt := range tests {
		snap := Snapshot{
			Target:     target,
			Collection: scan.Collection{TLS: scan.Succeeded(tlsWithDays(tt.days, "sha256WithRSAEncryption"))},
		}
		got := CertificateRule(snap)
		if tt.wantTitle == "" {
			if len(got) != 0 {
				t.Errorf("days=%d: expected no anomaly, got %v", tt.days, titles(got))
			}
			continue
		}
		if len(got) != 1 {
			t.Errorf("days=%d: expected 1 anomaly, got %v", tt.days, titles(got))
			continue
		}
		if got[0].Title != tt.wantTitle || got[0].Severity != tt.wantSev {
			t.Errorf("days=%d: got %s/%s, want %s/%s", tt.days, got[0].Severity, got[0].Title, tt.wantSev, tt.wantTitle)
		}
	}
}

func TestCertificateRuleExpiredAlwaysCritical(t *testing.T) {
	for _, days := range []int{-400, -1, 0, 15} {
		rec := tlsWithDays(days, "sha256WithRSAEncryption")
		rec.HasExpired = true
		snap := Snapshot{
			Target:     scan.MustTarget("https://example.com"),
			Collection: scan.Collection{TLS: scan.Succeeded(rec)},
		}
		got := CertificateRule(snap)
		if len(got) == 0 || got[0].Severity != scan.SeverityCritical || got[0].Title != TitleCertificateExpired {
			t.Errorf("days=%d: expected leading critical expired anomaly, got %v", days, titles(got))
		}
	}
}

func TestCertificateRuleWeakSignature(t *testing.T) {
	for _, algo := range []string{"sha1WithRSAEncryption", "MD5WithRSA", "ecdsa-with-SHA1"} {
		snap := Snapshot{
			Target:     scan.MustTarget("https://example.com"),
			Collection: scan.Collection{TLS: scan.Succeeded(tlsWithDays(200, algo))},
		}
		got := CertificateRule(snap)
		if len(got) != 1 || got[0].Title != TitleWeakSignature || got[0].Severity != scan.SeverityHigh {
			t.Errorf("%s: expected weak signature anomaly, got %v", algo, titles(got))
		}
	}
}

func TestRedirectionRule(t *testing.T) {
	t.Run("no http data", func(t *testing.T) {
		snap := Snapshot{
			Target:     scan.MustTarget("http://example.com"),
			Collection: scan.Collection{HTTP: scan.Failed[scan.HTTPRecord]("dial tcp: refused")},
		}
		if got := RedirectionRule(snap); len(got) != 0 {
			t.Fatalf("expected no anomalies, got %v", titles(got))
		}
	})

	t.Run("three hops is fine", func(t *testing.T) {
		rec := healthyHTTP("https://example.com/")
		rec.Redirects = []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
		snap := Snapshot{Target: scan.MustTarget("https://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}}
		if got := RedirectionRule(snap); len(got) != 0 {
			t.Fatalf("expected no anomalies, got %v", titles(got))
		}
	})

	t.Run("http without secure hop", func(t *testing.T) {
		rec := healthyHTTP("http://example.com/")
		snap := Snapshot{Target: scan.MustTarget("http://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}}
		got := RedirectionRule(snap)
		if len(got) != 1 || got[0].Title != TitleNoHTTPSUpgrade {
			t.Fatalf("expected no-upgrade anomaly, got %v", titles(got))
		}
	})

	t.Run("http with secure hop", func(t *testing.T) {
		rec := healthyHTTP("https://example.com/")
		rec.Redirects = []string{"http://example.com/", "https://example.com/login"}
		snap := Snapshot{Target: scan.MustTarget("http://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}}
		if got := RedirectionRule(snap); len(got) != 0 {
			t.Fatalf("expected no anomalies, got %v", titles(got))
		}
	})

	t.Run("subdomain counts as cross-domain", func(t *testing.T) {
		rec := healthyHTTP("https://www.example.com/")
		snap := Snapshot{Target: scan.MustTarget("https://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}}
		got := RedirectionRule(snap)
		if len(got) != 1 || got[0].Title != TitleCrossDomainRedirect {
			t.Fatalf("expected cross-domain anomaly, got %v", titles(got))
		}
		if !strings.Contains(got[0].Description, "example.com") || !strings.Contains(got[0].Description, "www.example.com") {
			t.Fatalf("description should name both hosts: %q", got[0].Description)
		}
	})
}

func TestHTMLSizeRule(t *testing.T) {
	tests := []struct {
		size      int64
		wantTitle string
	}{
		{size: 0, wantTitle: TitleSmallPage},
		{size: 499, wantTitle: TitleSmallPage},
		{size: 500},
		{size: 2_000_000},
		{size: 2_000_001, wantTitle: TitleLargePage},
	}

	for _, tt := range tests {
		rec := healthyHTTP("https://example.com/")
		rec.HTMLSize = tt.size
		snap := Snapshot{Target: scan.MustTarget("https://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}}
		got := HTMLSizeRule(snap)
		if tt.wantTitle == "" {
			if len(got) != 0 {
				t.Errorf("size=%d: expected no anomaly, got %v", tt.size, titles(got))
			}
			continue
		}
		if len(got) != 1 || got[0].Title != tt.wantTitle {
			t.Errorf("size=%d: expected %q, got %v", tt.size, tt.wantTitle, titles(got))
		}
	}

	rec := healthyHTTP("https://example.com/")
	rec.HTMLSize = 2_500_000
	got := HTMLSizeRule(Snapshot{Target: scan.MustTarget("https://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}})
	if got[0].Severity != scan.SeverityLow || !strings.Contains(got[0].Description, "2,500,000") {
		t.Fatalf("unexpected large page anomaly %+v", got[0])
	}
}

func TestSecurityHeadersRule(t *testing.T) {
	tests := []struct {
		name       string
		drop       []string
		wantSev    scan.Severity
		wantListed int
	}{
		{name: "none missing"},
		{name: "two missing", drop: []string{"Content-Security-Policy", "X-XSS-Protection"}, wantSev: scan.SeverityMedium, wantListed: 2},
		{name: "three missing", drop: []string{"Strict-Transport-Security", "X-Frame-Options", "X-Content-Type-Options"}, wantSev: scan.SeverityHigh, wantListed: 3},
		{name: "all missing", drop: []string{"Strict-Transport-Security", "Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "X-XSS-Protection"}, wantSev: scan.SeverityHigh, wantListed: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := healthyHTTP("https://example.com/")
			for _, name := range tt.drop {
				rec.Headers.Del(name)
			}
			got := SecurityHeadersRule(Snapshot{Target: scan.MustTarget("https://example.com"), Collection: scan.Collection{HTTP: scan.Succeeded(rec)}})
			if tt.wantListed == 0 {
				if len(got) != 0 {
					t.Fatalf("expected no anomaly, got %v", titles(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("expected exactly one anomaly, got %v", titles(got))
			}
			if got[0].Severity != tt.wantSev {
				t.Fatalf("severity = %s, want %s", got[0].Severity, tt.wantSev)
			}
			if n := strings.Count(got[0].Description, "missing"); n != tt.wantListed {
				t.Fatalf("listed %d findings, want %d: %q", n, tt.wantListed, got[0].Description)
			}
		})
	}
}

func TestSecurityHeadersRuleCaseInsensitive(t *testing.T) {
	rec := healthyHTTP("https://example.com/")
	rec.Headers = http.Header{}
	for _, tracked := range TrackedSecurityHeaders {
		rec.Headers[strings.ToLower(tracked.Name)] = []string{"set"}
	}
	if got := SecurityHeadersRule(Snapshot{Collection: scan.Collection{HTTP: scan.Succeeded(rec)}}); len(got) != 0 {
		t.Fatalf("lowercase header keys should count as present, got %v", titles(got))
	}
}

func TestDomainAgeRule(t *testing.T) {
	tests := []struct {
		age       int
		wantTitle string
	}{
		{age: 0, wantTitle: TitleVeryNewDomain},
		{age: 29, wantTitle: TitleVeryNewDomain},
		{age: 30, wantTitle: TitleRecentDomain},
		{age: 89, wantTitle: TitleRecentDomain},
		{age: 90},
	}

	for _, tt := range tests {
		snap := Snapshot{Collection: scan.Collection{Whois: scan.Succeeded(whoisWithAge(tt.age))}}
		got := DomainAgeRule(snap)
		if tt.wantTitle == "" {
			if len(got) != 0 {
				t.Errorf("age=%d: expected no anomaly, got %v", tt.age, titles(got))
			}
			continue
		}
		if len(got) != 1 || got[0].Title != tt.wantTitle {
			t.Errorf("age=%d: expected %q, got %v", tt.age, tt.wantTitle, titles(got))
		}
	}

	noDate := scan.NewWhoisRecord(scan.WhoisData{DomainName: "example.com"}, evalTime)
	if got := DomainAgeRule(Snapshot{Collection: scan.Collection{Whois: scan.Succeeded(noDate)}}); len(got) != 0 {
		t.Fatalf("absent creation date should not produce an anomaly, got %v", titles(got))
	}
}

func TestEvaluateHealthySite(t *testing.T) {
	snap := Snapshot{
		Target: scan.MustTarget("https://example.com"),
		Collection: scan.Collection{
			HTTP:  scan.Succeeded(healthyHTTP("https://example.com/")),
			TLS:   scan.Succeeded(tlsWithDays(120, "sha256WithRSAEncryption")),
			Whois: scan.Succeeded(whoisWithAge(400)),
		},
	}

	anomalies := Evaluate(snap)
	if len(anomalies) != 0 {
		t.Fatalf("expected zero anomalies, got %v", titles(anomalies))
	}
	got := Aggregate(anomalies)
	if got.Score != 0 || got.Level != scan.SeverityLow || got.AnomaliesCount != 0 {
		t.Fatalf("unexpected assessment %+v", got)
	}
}

func TestEvaluateNoHTTPSNewDomain(t *testing.T) {
	rec := healthyHTTP("https://example.com/")
	rec.Headers = http.Header{}
	snap := Snapshot{
		Target: scan.MustTarget("https://example.com"),
		Collection: scan.Collection{
			HTTP:  scan.Succeeded(rec),
			TLS:   scan.Failed[scan.TLSRecord]("handshake failure"),
			Whois: scan.Succeeded(whoisWithAge(10)),
		},
	}

	anomalies := Evaluate(snap)
	want := []struct {
		sev   scan.Severity
		title string
	}{
		{scan.SeverityCritical, TitleNoHTTPS},
		{scan.SeverityHigh, TitleMissingHeaders},
		{scan.SeverityHigh, TitleVeryNewDomain},
	}
	if len(anomalies) != len(want) {
		t.Fatalf("expected %d anomalies, got %v", len(want), titles(anomalies))
	}
	for i, w := range want {
		if anomalies[i].Severity != w.sev || anomalies[i].Title != w.title {
			t.Fatalf("anomaly %d = %s/%s, want %s/%s", i, anomalies[i].Severity, anomalies[i].Title, w.sev, w.title)
		}
	}

	got := Aggregate(anomalies)
	if got.Score != 200 || got.Level != scan.SeverityCritical || got.AnomaliesCount != 3 {
		t.Fatalf("unexpected assessment %+v", got)
	}
}

func TestEvaluateLongCrossDomainChain(t *testing.T) {
	rec := healthyHTTP("https://landing.example.net/")
	rec.Redirects = []string{
		"https://example.com/",
		"https://example.com/r1",
		"https://tracker.example.org/r2",
		"https://tracker.example.org/r3",
	}
	snap := Snapshot{
		Target: scan.MustTarget("https://example.com"),
		Collection: scan.Collection{
			HTTP:  scan.Succeeded(rec),
			TLS:   scan.Succeeded(tlsWithDays(200, "sha256WithRSAEncryption")),
			Whois: scan.Succeeded(whoisWithAge(1000)),
		},
	}

	anomalies := Evaluate(snap)
	gotTitles := titles(anomalies)
	if len(anomalies) != 2 || gotTitles[0] != TitleLongRedirectChain || gotTitles[1] != TitleCrossDomainRedirect {
		t.Fatalf("unexpected anomalies %v", gotTitles)
	}
	for _, a := range anomalies {
		if a.Severity != scan.SeverityMedium {
			t.Fatalf("expected medium severity, got %s for %s", a.Severity, a.Title)
		}
	}

	got := Aggregate(anomalies)
	if got.Score != 40 || got.Level != scan.SeverityMedium {
		t.Fatalf("unexpected assessment %+v", got)
	}
}

func TestEvaluateDoesNotMutateSnapshot(t *testing.T) {
	rec := healthyHTTP("https://example.com/")
	rec.Headers.Del("X-XSS-Protection")
	snap := Snapshot{
		Target:     scan.MustTarget("https://example.com"),
		Collection: scan.Collection{HTTP: scan.Succeeded(rec)},
	}

	first := Evaluate(snap)
	second := Evaluate(snap)
	if strings.Join(titles(first), "|") != strings.Join(titles(second), "|") {
		t.Fatalf("evaluation is not deterministic: %v vs %v", titles(first), titles(second))
	}
	after, _ := snap.Collection.HTTP.Record()
	if after.Headers.Get("X-XSS-Protection") != "" || after.Headers.Get("Content-Security-Policy") == "" {
		t.Fatalf("snapshot headers changed during evaluation")
	}
}
