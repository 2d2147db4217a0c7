package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/logger"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// LookupFunc returns the raw WHOIS response for domain.
type LookupFunc func(ctx context.Context, domain string) (string, error)

// WhoisChecker queries the registration record of the target's registrable
// domain.
type WhoisChecker struct {
	Timeout time.Duration
	// Lookup defaults to a likexian/whois client honoring Timeout.
	Lookup LookupFunc
}

// NewWhoisChecker returns a checker with the default lookup timeout.
func NewWhoisChecker() *WhoisChecker {
	return &WhoisChecker{Timeout: consts.DefaultWhoisTimeout}
}

func (c *WhoisChecker) Name() string { return scan.CollectorWhois }

// Check looks up and parses the registration record. Date fields holding
// several values collapse to the first one that parses.
func (c *WhoisChecker) Check(ctx context.Context, target scan.Target, now time.Time) scan.Outcome[scan.WhoisRecord] {
	domain := RegistrableDomain(target.Hostname())

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultWhoisTimeout
	}
	lookup := c.Lookup
	if lookup == nil {
		lookup = defaultLookup(timeout)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := lookup(lookupCtx, domain)
	if err != nil {
		logger.Debug(ctx, "whois lookup failed", zap.String("domain", domain), zap.Error(err))
		return scan.Failed[scan.WhoisRecord](failure(sharederrors.ErrLookup, err))
	}

	data, err := ParseWhois(raw)
	if err != nil {
		return scan.Failed[scan.WhoisRecord](failure(sharederrors.ErrLookup, err))
	}
	if data.DomainName == "" {
		data.DomainName = domain
	}

	return scan.Succeeded(scan.NewWhoisRecord(data, now))
}

// RegistrableDomain returns the eTLD+1 of host, or host itself when it has
// none (IP addresses, single labels).
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if net.ParseIP(host) != nil {
		return host
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

func defaultLookup(timeout time.Duration) LookupFunc {
	client := whois.NewClient().SetTimeout(timeout)
	return func(ctx context.Context, domain string) (string, error) {
		type answer struct {
			text string
			err  error
		}
		ch := make(chan answer, 1)
		go func() {
			text, err := client.Whois(domain)
			ch <- answer{text: text, err: err}
		}()

		select {
		case a := <-ch:
			return a.text, a.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// ParseWhois converts a raw WHOIS response into registration data.
func ParseWhois(raw string) (scan.WhoisData, error) {
	info, err := whoisparser.Parse(raw)
	if err != nil {
		return scan.WhoisData{}, fmt.Errorf("parse response: %w", err)
	}
	if info.Domain == nil {
		return scan.WhoisData{}, errors.New("parse response: no domain section")
	}

	data := scan.WhoisData{
		DomainName:      strings.ToLower(info.Domain.Domain),
		CreationDates:   whoisDates(info.Domain.CreatedDateInTime, info.Domain.CreatedDate),
		ExpirationDates: whoisDates(info.Domain.ExpirationDateInTime, info.Domain.ExpirationDate),
		UpdatedDates:    whoisDates(info.Domain.UpdatedDateInTime, info.Domain.UpdatedDate),
		NameServers:     info.Domain.NameServers,
		Status:          info.Domain.Status,
	}
	if info.Registrar != nil {
		data.Registrar = info.Registrar.Name
	}
	return data, nil
}

// whoisDates prefers the parser's own timestamp. Fields holding several
// values come back joined and unparsed, so they are split and read here.
func whoisDates(parsed *time.Time, raw string) []time.Time {
	if parsed != nil && !parsed.IsZero() {
		return []time.Time{parsed.UTC()}
	}
	return parseWhoisDates(raw)
}

// Fallback layouts for joined values; values without a zone are read as UTC.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05-07",
	"2006-01-02",
	"2006.01.02",
	"2006.01.02 15:04:05",
	"2006/01/02",
	"02-Jan-2006",
	"02.01.2006",
	"January 2 2006",
	"Mon Jan 2 15:04:05 MST 2006",
	"Mon Jan _2 2006",
}

// parseWhoisDates splits a field that may hold several values and parses
// each, skipping values in unknown formats.
func parseWhoisDates(field string) []time.Time {
	var out []time.Time
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		for _, layout := range whoisDateLayouts {
			if t, err := time.Parse(layout, part); err == nil {
				out = append(out, t.UTC())
				break
			}
		}
	}
	return out
}
