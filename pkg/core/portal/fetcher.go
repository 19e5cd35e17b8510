package portal

import (
	"context"
	"fmt"
	"log"
)

// DownloadReport fetches the located report as a binary payload. The
// Content-Type is logged but not validated; the extractor decides whether
// the bytes are a workbook.
func (c *Client) DownloadReport(ctx context.Context, ref ReportRef) ([]byte, string, error) {
	payload, contentType, err := c.fetch(ctx, ref.URL, acceptSpreadsheet, c.cfg.ListingURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download report %q: %w", ref.Title, err)
	}

	log.Printf("[portal] downloaded %q: %d bytes, content type %q", ref.Title, len(payload), contentType)
	return payload, contentType, nil
}
