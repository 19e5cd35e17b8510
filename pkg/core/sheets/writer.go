package sheets

import (
	"fmt"
	"log"
	"time"

	"inventory_feed/pkg/core/extract"
)

// TabClient is the narrow surface the writer needs from a worksheet tab.
// Rows and columns are 1-based / A-based, matching the spreadsheet UI.
type TabClient interface {
	RowValues(row int) ([]string, error)
	ColValues(col string) ([]string, error)
	InsertRow(row int, values []string) error
	AppendRow(values []interface{}) error
}

// detailHeader is the fixed nine-column schema of the detail tab.
var detailHeader = []string{
	"Date", "Report Date",
	"On Warrant", "Cancelled Warrants", "Total Live Warrants",
	"Delivered In", "Delivered Out", "Net Change",
	"Source",
}

// reportDateColumn is where the duplicate guard looks.
const reportDateColumn = "B"

// Writer appends normalized rows to the detail tab and mirrors a summary
// row onto the dashboard tab.
type Writer struct {
	detail    TabClient
	dashboard TabClient
	now       func() time.Time
}

// NewWriter creates a Writer over the two destination tabs.
func NewWriter(detail, dashboard TabClient) *Writer {
	return &Writer{detail: detail, dashboard: dashboard, now: time.Now}
}

// Write guarantees the header row, runs the duplicate guard, and appends
// the detail and dashboard rows. It reports whether anything was appended;
// a duplicate report date is a silent no-op, not an error — that is the
// idempotence mechanism for rerun or overlapping executions.
func (w *Writer) Write(rec extract.Record, sourceURL string) (bool, error) {
	if err := w.ensureHeader(); err != nil {
		return false, err
	}

	if rec.ReportDate != "" {
		existing, err := w.detail.ColValues(reportDateColumn)
		if err != nil {
			return false, fmt.Errorf("failed to read report date column: %w", err)
		}
		for _, v := range existing {
			if v == rec.ReportDate {
				log.Printf("[sheets] duplicate: report date %s already logged, skipping", rec.ReportDate)
				return false, nil
			}
		}
	}

	today := w.now().Format("2006-01-02")

	detailRow := []interface{}{
		today,
		rec.ReportDate,
		numOrBlank(rec.OnWarrant),
		numOrBlank(rec.CancelledWarrants),
		numOrBlank(rec.TotalLiveWarrants),
		numOrBlank(rec.DeliveredIn),
		numOrBlank(rec.DeliveredOut),
		numOrBlank(rec.NetChange),
		sourceURL,
	}
	if err := w.detail.AppendRow(detailRow); err != nil {
		return false, err
	}
	log.Printf("[sheets] wrote detail row: %v", detailRow)

	// Dashboard mirror carries only the total; other summary columns stay
	// blank. Unconditional append, no merging with existing dashboard rows.
	dashboardRow := []interface{}{
		today,
		rec.ReportDate,
		"", "",
		numOrBlank(rec.TotalLiveWarrants),
		"",
	}
	if err := w.dashboard.AppendRow(dashboardRow); err != nil {
		return false, err
	}
	log.Printf("[sheets] wrote dashboard row: %v", dashboardRow)

	return true, nil
}

// ensureHeader inserts the nine-column header at row one when the tab is
// empty or its first cell is not the literal "Date" label.
func (w *Writer) ensureHeader() error {
	first, err := w.detail.RowValues(1)
	if err != nil {
		return fmt.Errorf("failed to read first row of detail tab: %w", err)
	}
	if len(first) > 0 && first[0] == "Date" {
		return nil
	}
	if err := w.detail.InsertRow(1, detailHeader); err != nil {
		return err
	}
	log.Printf("[sheets] header row written")
	return nil
}

// numOrBlank renders an absent numeric field as the empty string.
func numOrBlank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
