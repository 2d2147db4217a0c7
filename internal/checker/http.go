package checker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/khanhnv2901/sitescan/internal/domain/scan"
	"github.com/khanhnv2901/sitescan/internal/logger"
	consts "github.com/khanhnv2901/sitescan/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/sitescan/internal/shared/errors"
	"go.uber.org/zap"
)

// HTTPChecker fetches the target with a single GET, following redirects.
type HTTPChecker struct {
	Timeout   time.Duration
	UserAgent string
	// MaxRedirects defaults to consts.MaxRedirects.
	MaxRedirects int
	// Client is used as a template when set; its CheckRedirect is replaced.
	Client *http.Client
}

// NewHTTPChecker returns a checker with the default timeout and user agent.
func NewHTTPChecker() *HTTPChecker {
	return &HTTPChecker{
		Timeout:   consts.DefaultHTTPTimeout,
		UserAgent: consts.DefaultUserAgent,
	}
}

func (h *HTTPChecker) Name() string { return scan.CollectorHTTP }

// Check fetches the page, records every URL that answered with a redirect, and
// parses the body for its structure. The body is counted in full but only the
// first consts.MaxBodyParseBytes are parsed.
func (h *HTTPChecker) Check(ctx context.Context, target scan.Target, _ time.Time) scan.Outcome[scan.HTTPRecord] {
	maxRedirects := h.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = consts.MaxRedirects
	}

	var redirects []string
	client := &http.Client{}
	if h.Client != nil {
		c := *h.Client
		client = &c
	}
	if h.Timeout > 0 {
		client.Timeout = h.Timeout
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		redirects = append(redirects, via[len(via)-1].URL.String())
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL(), nil)
	if err != nil {
		return scan.Failed[scan.HTTPRecord](failure(sharederrors.ErrNetwork, fmt.Errorf("create request: %w", err)))
	}
	ua := h.UserAgent
	if ua == "" {
		ua = consts.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		logger.Debug(ctx, "http request failed", zap.Error(err))
		return scan.Failed[scan.HTTPRecord](failure(sharederrors.ErrNetwork, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, consts.MaxBodyParseBytes))
	if err != nil {
		return scan.Failed[scan.HTTPRecord](failure(sharederrors.ErrNetwork, fmt.Errorf("read body: %w", err)))
	}
	rest, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return scan.Failed[scan.HTTPRecord](failure(sharederrors.ErrNetwork, fmt.Errorf("read body: %w", err)))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "unknown"
	}

	if redirects == nil {
		redirects = []string{}
	}

	structure, err := ParseHTML(bytes.NewReader(body))
	if err != nil {
		logger.Debug(ctx, "html parse degraded to defaults", zap.Error(err))
	}

	return scan.Succeeded(scan.HTTPRecord{
		StatusCode:  resp.StatusCode,
		FinalURL:    resp.Request.URL.String(),
		Redirects:   redirects,
		Headers:     resp.Header.Clone(),
		HTMLSize:    int64(len(body)) + rest,
		ContentType: contentType,
		Structure:   structure,
	})
}
