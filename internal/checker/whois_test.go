package checker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
)

const sampleWhois = `   Domain Name: EXAMPLE.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.iana.org
   Registrar URL: http://res-dom.iana.org
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 1995-08-14T04:00:00Z
   Registry Expiry Date: 2025-08-13T04:00:00Z
   Registrar: RESERVED-Internet Assigned Numbers Authority
   Registrar IANA ID: 376
   Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
   Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
   Name Server: A.IANA-SERVERS.NET
   Name Server: B.IANA-SERVERS.NET
   DNSSEC: signedDelegation
>>> Last update of whois database: 2025-03-01T12:00:00Z <<<
`

func TestWhoisCheckerParsesRecord(t *testing.T) {
	var queried string
	c := &WhoisChecker{
		Timeout: time.Second,
		Lookup: func(_ context.Context, domain string) (string, error) {
			queried = domain
			return sampleWhois, nil
		},
	}

	out := c.Check(context.Background(), scan.MustTarget("https://www.example.com/path"), evalTime)
	rec, ok := out.Record()
	if !ok {
		reason, _ := out.Failure()
		t.Fatalf("Expected whois record, got failure %q", reason)
	}
	if queried != "example.com" {
		t.Errorf("Expected registrable domain to be queried, got %q", queried)
	}

	wantCreated := time.Date(1995, 8, 14, 4, 0, 0, 0, time.UTC)
	if rec.CreationDate == nil || !rec.CreationDate.Equal(wantCreated) {
		t.Errorf("Expected creation date %s, got %v", wantCreated, rec.CreationDate)
	}
	if rec.AgeDays == nil || *rec.AgeDays != scan.DaysBetween(wantCreated, evalTime) {
		t.Errorf("Unexpected age %v", rec.AgeDays)
	}
	if rec.Registrar == nil || !strings.Contains(*rec.Registrar, "Internet Assigned Numbers Authority") {
		t.Errorf("Unexpected registrar %v", rec.Registrar)
	}
	if len(rec.NameServers) != 2 {
		t.Errorf("Expected 2 name servers, got %v", rec.NameServers)
	}
}

func TestWhoisCheckerLookupFailure(t *testing.T) {
	c := &WhoisChecker{
		Lookup: func(context.Context, string) (string, error) {
			return "", errors.New("connection reset")
		},
	}

	reason, failed := c.Check(context.Background(), scan.MustTarget("example.com"), evalTime).Failure()
	if !failed {
		t.Fatal("Expected failure")
	}
	if reason != "lookup failure: connection reset" {
		t.Errorf("Unexpected failure %q", reason)
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := map[string]string{
		"www.example.com":   "example.com",
		"example.com":       "example.com",
		"a.b.example.co.uk": "example.co.uk",
		"WWW.Example.COM.":  "example.com",
		"127.0.0.1":         "127.0.0.1",
	}
	for host, want := range tests {
		if got := RegistrableDomain(host); got != want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", host, got, want)
		}
	}
}

func TestParseWhoisDatesTakesEveryValue(t *testing.T) {
	got := parseWhoisDates("2020-01-02T03:04:05Z, 2020-01-02T03:04:05Z, not-a-date, 2021-06-01")
	if len(got) != 3 {
		t.Fatalf("Expected 3 parsed dates, got %d", len(got))
	}
	if !got[0].Equal(got[1]) {
		t.Errorf("Expected duplicate values to parse equally")
	}
	if got[2].Location() != time.UTC {
		t.Errorf("Expected zoneless date to be read as UTC")
	}

	data := scan.WhoisData{CreationDates: got}
	first := scan.NewWhoisRecord(data, evalTime)
	only := scan.NewWhoisRecord(scan.WhoisData{CreationDates: got[:1]}, evalTime)
	if *first.AgeDays != *only.AgeDays {
		t.Errorf("Expected list to collapse to its first value")
	}
}

func registryRecord(created string) string {
	return "Domain Name: EXAMPLE.COM\n" +
		"Registrar: Example Registrar, Inc.\n" +
		"Creation Date: " + created + "\n" +
		"Registry Expiry Date: 2025-08-13T04:00:00Z\n"
}

func TestParseWhoisCreationDateFormats(t *testing.T) {
	tests := []struct {
		name    string
		created string
	}{
		{name: "rfc1123 with comma", created: "Mon, 14 Aug 1995 04:00:00 UTC"},
		{name: "dash month name with time", created: "14-Aug-1995 04:00:00"},
		{name: "day first slashes", created: "14/08/1995 04:00:00"},
		{name: "year month name day", created: "1995-Aug-14"},
		{name: "rfc3339", created: "1995-08-14T04:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseWhois(registryRecord(tt.created))
			if err != nil {
				t.Fatalf("ParseWhois: %v", err)
			}
			if len(data.CreationDates) == 0 {
				t.Fatalf("Expected creation date from %q", tt.created)
			}
			got := data.CreationDates[0]
			if got.Location() != time.UTC {
				t.Errorf("Expected UTC, got %s", got.Location())
			}
			if y, m, d := got.Date(); y != 1995 || m != time.August || d != 14 {
				t.Errorf("Expected 1995-08-14, got %s", got)
			}
			if len(data.ExpirationDates) == 0 || data.ExpirationDates[0].Year() != 2025 {
				t.Errorf("Expected expiry in 2025, got %v", data.ExpirationDates)
			}
		})
	}
}

func TestParseWhoisRepeatedCreationDate(t *testing.T) {
	raw := registryRecord("2024-12-01T00:00:00Z") + "Creation Date: 2024-12-01T00:00:00Z\n"
	data, err := ParseWhois(raw)
	if err != nil {
		t.Fatalf("ParseWhois: %v", err)
	}
	want := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	if len(data.CreationDates) == 0 || !data.CreationDates[0].Equal(want) {
		t.Fatalf("Expected first creation date %s, got %v", want, data.CreationDates)
	}

	rec := scan.NewWhoisRecord(data, want.AddDate(0, 0, 10))
	if rec.AgeDays == nil || *rec.AgeDays != 10 {
		t.Fatalf("Expected age of 10 days, got %v", rec.AgeDays)
	}
}
