package checker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
)

const samplePage = `<!DOCTYPE html>
<html><head>
<TITLE> Example Domain </TITLE>
<meta charset="utf-8"><META name="viewport" content="width=device-width">
<script src="/a.js"></script><script>var x = 1;</script>
</head><body>
<iframe src="/frame"></iframe>
<form action="/login"><input name="u"></form>
<form action="/search"></form>
</body></html>`

func TestHTTPCheckerFollowsRedirects(t *testing.T) {
	var gotUA string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/step", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/step", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Frame-Options", "DENY")
		_, _ = w.Write([]byte(samplePage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := &HTTPChecker{UserAgent: "sitescan-test"}
	out := c.Check(context.Background(), scan.MustTarget(srv.URL+"/"), evalTime)

	rec, ok := out.Record()
	if !ok {
		reason, _ := out.Failure()
		t.Fatalf("Expected success, got failure %q", reason)
	}
	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.StatusCode)
	}
	if rec.FinalURL != srv.URL+"/final" {
		t.Errorf("Expected final URL %s/final, got %s", srv.URL, rec.FinalURL)
	}
	wantChain := []string{srv.URL + "/", srv.URL + "/step"}
	if strings.Join(rec.Redirects, " ") != strings.Join(wantChain, " ") {
		t.Errorf("Expected redirect chain %v, got %v", wantChain, rec.Redirects)
	}
	if rec.HTMLSize != int64(len(samplePage)) {
		t.Errorf("Expected body size %d, got %d", len(samplePage), rec.HTMLSize)
	}
	if rec.ContentType != "text/html; charset=utf-8" {
		t.Errorf("Unexpected content type %q", rec.ContentType)
	}
	if !rec.HasHeader("x-frame-options") {
		t.Error("Expected X-Frame-Options header to be captured")
	}
	if gotUA != "sitescan-test" {
		t.Errorf("Expected User-Agent to be sent, got %q", gotUA)
	}

	s := rec.Structure
	if s.Title == nil || *s.Title != "Example Domain" {
		t.Errorf("Unexpected title %v", s.Title)
	}
	if s.MetaTags != 2 || s.Scripts != 2 || s.Iframes != 1 || s.Forms != 2 {
		t.Errorf("Unexpected structure counts %+v", s)
	}
}

func TestHTTPCheckerDefaultsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec, ok := NewHTTPChecker().Check(context.Background(), scan.MustTarget(srv.URL), evalTime).Record()
	if !ok {
		t.Fatal("Expected success")
	}
	if rec.ContentType != "unknown" {
		t.Errorf("Expected content type unknown, got %q", rec.ContentType)
	}
	if rec.Structure.Title != nil {
		t.Errorf("Expected no title for empty body, got %q", *rec.Structure.Title)
	}
	if len(rec.Redirects) != 0 || rec.Redirects == nil {
		t.Errorf("Expected empty non-nil redirect chain, got %#v", rec.Redirects)
	}
}

func TestHTTPCheckerRedirectLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	c := &HTTPChecker{MaxRedirects: 3}
	out := c.Check(context.Background(), scan.MustTarget(srv.URL+"/"), evalTime)
	reason, failed := out.Failure()
	if !failed || !strings.Contains(reason, "stopped after 3 redirects") {
		t.Fatalf("Expected redirect limit failure, got %q", reason)
	}
}

func TestHTTPCheckerNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := NewHTTPChecker().Check(context.Background(), scan.MustTarget(url), evalTime)
	reason, failed := out.Failure()
	if !failed {
		t.Fatal("Expected failure against closed server")
	}
	if !strings.HasPrefix(reason, "network failure") {
		t.Errorf("Expected network failure, got %q", reason)
	}
}

func TestParseHTMLMalformed(t *testing.T) {
	s, err := ParseHTML(strings.NewReader("<html><title></title><form><form><<<script"))
	if err != nil {
		t.Fatalf("Expected lenient parse, got %v", err)
	}
	if s.Title != nil {
		t.Errorf("Expected empty title to be absent, got %q", *s.Title)
	}
	if s.Forms != 1 {
		t.Errorf("Expected nested form to be dropped by the parser, got %d forms", s.Forms)
	}
}

func TestHTTPCheckerUsesTemplateClient(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	target := scan.MustTarget(srv.URL)

	// Without the server's client the self-signed certificate is rejected.
	plain := NewHTTPChecker()
	if out := plain.Check(context.Background(), target, evalTime); out.OK() {
		t.Fatal("Expected untrusted certificate to fail")
	}

	c := NewHTTPChecker()
	c.Client = srv.Client()
	out := c.Check(context.Background(), target, evalTime)
	rec, ok := out.Record()
	if !ok {
		reason, _ := out.Failure()
		t.Fatalf("Expected success with template client, got %s", reason)
	}
	if rec.StatusCode != http.StatusOK || rec.Structure.Forms != 2 {
		t.Errorf("Unexpected record %+v", rec)
	}
	if c.Client.CheckRedirect != nil {
		t.Error("Expected template client to be left untouched")
	}
}
