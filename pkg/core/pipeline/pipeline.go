// Package pipeline wires the five feed stages into one strictly linear run:
// login, locate, download, extract, write. There is no retry and no partial
// success; the external scheduler owns the cadence and any retrying.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inventory_feed/pkg/core/config"
	"inventory_feed/pkg/core/extract"
	"inventory_feed/pkg/core/portal"
)

// ErrNoUsableFields is returned when the extracted record carries neither
// of the two load-bearing fields. Writing such a record would only poison
// the tracker.
var ErrNoUsableFields = errors.New("extracted record has neither on-warrant nor total-live-warrant volume")

// PortalSession is the portal-facing surface of the pipeline. portal.Client
// implements all three stages; tests substitute recorded fixtures.
type PortalSession interface {
	Login(ctx context.Context, username, password string) error
	LocateLatestReport(ctx context.Context) (portal.ReportRef, error)
	DownloadReport(ctx context.Context, ref portal.ReportRef) ([]byte, string, error)
}

// Extractor turns a workbook payload into a record.
type Extractor interface {
	Parse(payload []byte) (extract.Record, error)
}

// RowWriter persists one record. It reports whether a row was appended;
// false with a nil error means the duplicate guard fired.
type RowWriter interface {
	Write(rec extract.Record, sourceURL string) (bool, error)
}

// Pipeline holds the wired stages for one run.
type Pipeline struct {
	session   PortalSession
	extractor Extractor
	writer    RowWriter
	creds     config.Credentials
}

// New creates a pipeline.
func New(session PortalSession, extractor Extractor, writer RowWriter, creds config.Credentials) *Pipeline {
	return &Pipeline{session: session, extractor: extractor, writer: writer, creds: creds}
}

// Run executes one end-to-end attempt. Any error aborts the run; a
// duplicate report date is a successful no-op.
func (p *Pipeline) Run(ctx context.Context) error {
	log.Printf("[pipeline] [1] logging in to portal...")
	if err := p.session.Login(ctx, p.creds.PortalUsername, p.creds.PortalPassword); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	log.Printf("[pipeline] [2] locating latest report...")
	ref, err := p.session.LocateLatestReport(ctx)
	if err != nil {
		return fmt.Errorf("report discovery failed: %w", err)
	}
	log.Printf("[pipeline] latest report: %q", ref.Title)

	log.Printf("[pipeline] [3] downloading report...")
	payload, _, err := p.session.DownloadReport(ctx, ref)
	if err != nil {
		return fmt.Errorf("report download failed: %w", err)
	}

	log.Printf("[pipeline] [4] extracting fields...")
	rec, err := p.extractor.Parse(payload)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	logRecord(rec)

	if !rec.Usable() {
		return ErrNoUsableFields
	}

	log.Printf("[pipeline] [5] writing to destination sheet...")
	appended, err := p.writer.Write(rec, ref.URL)
	if err != nil {
		return fmt.Errorf("sheet write failed: %w", err)
	}
	if !appended {
		log.Printf("[pipeline] duplicate report date, nothing written")
		return nil
	}

	log.Printf("[pipeline] done")
	return nil
}

func logRecord(rec extract.Record) {
	show := func(v *float64) string {
		if v == nil {
			return "absent"
		}
		return fmt.Sprintf("%.2f", *v)
	}
	log.Printf("[pipeline] extracted: report_date=%q on_warrant=%s cancelled=%s total_live=%s delivered_in=%s delivered_out=%s net_change=%s",
		rec.ReportDate, show(rec.OnWarrant), show(rec.CancelledWarrants), show(rec.TotalLiveWarrants),
		show(rec.DeliveredIn), show(rec.DeliveredOut), show(rec.NetChange))
}
