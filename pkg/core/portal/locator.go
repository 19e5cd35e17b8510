package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoReport is returned when neither the listing page nor the listing API
// yields a downloadable report. It usually means the portal's page
// structure changed.
var ErrNoReport = errors.New("no report found on listing page or listing API")

// LocateLatestReport finds the most recent report. It scans the rendered
// listing page for download links first, falls back to the JSON listing
// API, and finally (when configured) probes dated URLs walking back from
// today. The first candidate in source order is trusted to be the latest;
// nothing verifies recency, so an out-of-order listing would be ingested
// stale. Known limitation.
func (c *Client) LocateLatestReport(ctx context.Context) (ReportRef, error) {
	ref, found, err := c.locateFromListing(ctx)
	if err != nil {
		return ReportRef{}, err
	}
	if found {
		return ref, nil
	}

	if c.cfg.ListingAPIURL != "" {
		ref, found = c.locateFromAPI(ctx)
		if found {
			return ref, nil
		}
	}

	if c.cfg.DatedURLTemplate != "" {
		ref, found = c.probeDatedURLs(ctx)
		if found {
			return ref, nil
		}
	}

	return ReportRef{}, ErrNoReport
}

// locateFromListing scans hyperlinks on the listing page for hrefs matching
// the configured download pattern. Document order decides ties.
func (c *Client) locateFromListing(ctx context.Context) (ReportRef, bool, error) {
	page, _, err := c.fetch(ctx, c.cfg.ListingURL, "text/html,application/xhtml+xml,*/*", "")
	if err != nil {
		return ReportRef{}, false, fmt.Errorf("failed to fetch report listing page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ReportRef{}, false, fmt.Errorf("failed to parse listing page markup: %w", err)
	}

	base, err := url.Parse(c.cfg.ListingURL)
	if err != nil {
		return ReportRef{}, false, fmt.Errorf("invalid listing URL %q: %w", c.cfg.ListingURL, err)
	}

	var candidates []ReportRef
	var seen []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		seen = append(seen, href)
		if !c.hrefPattern.MatchString(href) {
			return
		}

		resolved := href
		if u, err := url.Parse(href); err == nil {
			resolved = base.ResolveReference(u).String()
		}

		title := strings.TrimSpace(s.Text())
		if title == "" {
			title = href
		}
		candidates = append(candidates, ReportRef{Title: title, URL: resolved})
	})

	if len(candidates) == 0 {
		// Dump everything scanned so a markup change is diagnosable.
		log.Printf("[portal] no download links among %d hyperlinks on listing page", len(seen))
		for _, href := range seen {
			log.Printf("[portal]   scanned href: %s", href)
		}
		return ReportRef{}, false, nil
	}

	log.Printf("[portal] %d download candidates, taking first: %q -> %s",
		len(candidates), candidates[0].Title, candidates[0].URL)
	return candidates[0], true, nil
}

// reportDescriptor is one entry of the JSON listing API response.
type reportDescriptor struct {
	ID    flexID `json:"id"`
	Title string `json:"title"`
}

// flexID decodes a report identifier that the API serves sometimes as a
// string and sometimes as a number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	*f = flexID(strings.Trim(string(b), `"`))
	return nil
}

// locateFromAPI asks the JSON listing API for report descriptors and
// synthesizes a download URL from the first (assumed most recent) entry.
func (c *Client) locateFromAPI(ctx context.Context) (ReportRef, bool) {
	body, _, err := c.fetch(ctx, c.cfg.ListingAPIURL, "application/json", c.cfg.ListingURL)
	if err != nil {
		log.Printf("[portal] listing API fallback failed: %v", err)
		return ReportRef{}, false
	}

	var listing struct {
		Reports []reportDescriptor `json:"reports"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		log.Printf("[portal] failed to decode listing API response: %v", err)
		return ReportRef{}, false
	}
	if len(listing.Reports) == 0 {
		log.Printf("[portal] listing API returned no reports")
		return ReportRef{}, false
	}

	first := listing.Reports[0]
	if first.ID == "" {
		log.Printf("[portal] listing API entry has no identifier: %+v", first)
		return ReportRef{}, false
	}

	ref := ReportRef{
		Title: first.Title,
		URL:   strings.ReplaceAll(c.cfg.DownloadURLTemplate, "{id}", string(first.ID)),
	}
	if ref.Title == "" {
		ref.Title = string(first.ID)
	}
	log.Printf("[portal] listing API yielded report %q -> %s", ref.Title, ref.URL)
	return ref, true
}

// probeDatedURLs walks back day by day from today looking for a published
// report at a dated URL. Probe misses are expected and not fatal.
func (c *Client) probeDatedURLs(ctx context.Context) (ReportRef, bool) {
	days := c.cfg.DatedProbeDays
	if days <= 0 {
		days = 7
	}

	today := time.Now()
	for delta := 0; delta < days; delta++ {
		date := today.AddDate(0, 0, -delta).Format("20060102")
		probe := strings.ReplaceAll(c.cfg.DatedURLTemplate, "{date}", date)

		body, _, err := c.fetch(ctx, probe, acceptSpreadsheet, c.cfg.ListingURL)
		if err != nil {
			log.Printf("[portal] %s: %v, skipping", date, err)
			continue
		}
		if len(body) < 500 {
			log.Printf("[portal] %s: body too small (%d bytes), skipping", date, len(body))
			continue
		}
		log.Printf("[portal] found dated report for %s", date)
		return ReportRef{Title: "report " + date, URL: probe}, true
	}
	return ReportRef{}, false
}
