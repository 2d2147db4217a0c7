package scan

import (
	"math"
	"net/http"
	"strings"
	"time"
)

// HTMLStructure summarizes the parsed body. Counts stay zero when the body
// could not be parsed.
type HTMLStructure struct {
	Title    *string
	MetaTags int
	Scripts  int
	Iframes  int
	Forms    int
}

// HTTPRecord is what the HTTP collector observed for a single GET.
type HTTPRecord struct {
	StatusCode  int
	FinalURL    string
	Redirects   []string // visited URLs in order, final URL excluded
	Headers     http.Header
	HTMLSize    int64
	ContentType string
	Structure   HTMLStructure
}

// HasHeader reports whether the response carried the named header,
// case-insensitively and regardless of its value.
func (r HTTPRecord) HasHeader(name string) bool {
	if len(r.Headers.Values(name)) > 0 {
		return true
	}
	for key, values := range r.Headers {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return true
		}
	}
	return false
}

// Certificate carries the raw leaf certificate fields read by the TLS collector.
type Certificate struct {
	Subject            map[string]string
	Issuer             map[string]string
	Version            int
	SerialNumber       string
	NotBefore          time.Time
	NotAfter           time.Time
	SignatureAlgorithm string
}

// TLSRecord is a Certificate plus the fields derived at evaluation time.
type TLSRecord struct {
	Certificate
	HasExpired      bool
	DaysUntilExpiry int
}

// NewTLSRecord derives expiry fields relative to now.
func NewTLSRecord(cert Certificate, now time.Time) TLSRecord {
	return TLSRecord{
		Certificate:     cert,
		HasExpired:      now.After(cert.NotAfter),
		DaysUntilExpiry: DaysBetween(now, cert.NotAfter),
	}
}

// WhoisData is registry data as parsed, before normalization. Date fields hold
// every value the registry returned; only the first one is kept.
type WhoisData struct {
	DomainName      string
	Registrar       string
	CreationDates   []time.Time
	ExpirationDates []time.Time
	UpdatedDates    []time.Time
	NameServers     []string
	Status          []string
}

// WhoisRecord is normalized registration metadata. Absent source dates leave
// both the date and its derived field nil.
type WhoisRecord struct {
	DomainName      string
	Registrar       *string
	CreationDate    *time.Time
	ExpirationDate  *time.Time
	UpdatedDate     *time.Time
	AgeDays         *int
	DaysUntilExpiry *int
	NameServers     []string
	Status          []string
}

// NewWhoisRecord collapses date lists to their first value and derives age
// and remaining registration relative to now.
func NewWhoisRecord(data WhoisData, now time.Time) WhoisRecord {
	rec := WhoisRecord{
		DomainName:     data.DomainName,
		CreationDate:   firstTime(data.CreationDates),
		ExpirationDate: firstTime(data.ExpirationDates),
		UpdatedDate:    firstTime(data.UpdatedDates),
		NameServers:    nonNil(data.NameServers),
		Status:         nonNil(data.Status),
	}
	if data.Registrar != "" {
		registrar := data.Registrar
		rec.Registrar = &registrar
	}
	if rec.CreationDate != nil {
		age := DaysBetween(*rec.CreationDate, now)
		rec.AgeDays = &age
	}
	if rec.ExpirationDate != nil {
		left := DaysBetween(now, *rec.ExpirationDate)
		rec.DaysUntilExpiry = &left
	}
	return rec
}

// DaysBetween returns the whole days from start to end, floored so that a
// partially elapsed negative day counts as -1. Both operands are compared in
// UTC.
func DaysBetween(start, end time.Time) int {
	d := end.UTC().Sub(start.UTC())
	return int(math.Floor(d.Hours() / 24))
}

func firstTime(values []time.Time) *time.Time {
	for _, v := range values {
		if v.IsZero() {
			continue
		}
		first := v.UTC()
		return &first
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
