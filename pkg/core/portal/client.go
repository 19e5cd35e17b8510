// Package portal implements the session login, report discovery, and report
// download against the source warehouse portal. All portal-specific
// heuristics are driven by config.PortalConfig so they can be exercised
// against recorded fixture pages.
package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"
	"time"

	"inventory_feed/pkg/core/config"
)

// Browser-like headers; the portal rejects obvious non-browser clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0"

// acceptSpreadsheet favors workbook payloads on the download request.
const acceptSpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/vnd.ms-excel,*/*"

// ReportRef identifies one downloadable report: a display title and a
// resolved absolute URL.
type ReportRef struct {
	Title string
	URL   string
}

// Client is an authenticated HTTP session against the portal. Session state
// lives in the cookie jar and is shared by all requests; a Client is created
// once per run and not reused across runs.
type Client struct {
	cfg         config.PortalConfig
	httpClient  *http.Client
	hrefPattern *regexp.Regexp
}

// NewClient creates a portal client with a fresh cookie jar.
func NewClient(cfg config.PortalConfig) (*Client, error) {
	pattern, err := regexp.Compile(cfg.DownloadHrefPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid download href pattern %q: %w", cfg.DownloadHrefPattern, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:         cfg,
		hrefPattern: pattern,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

// fetch issues a GET and returns the body and Content-Type. Any non-2xx
// status is an error.
func (c *Client) fetch(ctx context.Context, url, accept, referer string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("portal returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func containsFoldAny(body string, markers []string) bool {
	lowered := strings.ToLower(body)
	for _, m := range markers {
		if m != "" && strings.Contains(lowered, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
