package extract

import (
	"bytes"
	"fmt"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"inventory_feed/pkg/core/config"
)

// fieldOrder fixes the iteration order for header-based column mapping.
var fieldOrder = []string{
	FieldOnWarrant,
	FieldCancelledWarrants,
	FieldTotalLiveWarrants,
	FieldDeliveredIn,
	FieldDeliveredOut,
	FieldNetChange,
}

// Extractor parses report workbooks according to its configuration.
type Extractor struct {
	cfg config.ExtractConfig
}

// New creates an Extractor.
func New(cfg config.ExtractConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Parse loads the workbook payload, locates the header and commodity rows,
// and maps the configured semantic fields. A workbook with no recognizable
// commodity row yields an entirely-absent record, not an error; validity is
// the caller's concern.
func (e *Extractor) Parse(payload []byte) (Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Record{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return Record{}, fmt.Errorf("workbook has no active sheet")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Record{}, fmt.Errorf("failed to enumerate rows of sheet %q: %w", sheet, err)
	}

	// Dump the leading rows so a layout change is diagnosable from the log.
	for i, row := range rows {
		if i >= 20 {
			break
		}
		log.Printf("[extract] row %d: %v", i, row)
	}

	var rec Record
	rec.ReportDate = e.findReportDate(rows)

	headerIdx := e.findHeaderRow(rows)
	targetIdx := e.findTargetRow(rows)
	if targetIdx < 0 {
		log.Printf("[extract] no row matched commodity keywords %v; record left empty", e.cfg.CommodityKeywords)
		return rec, nil
	}
	target := rows[targetIdx]

	if headerIdx >= 0 {
		log.Printf("[extract] header row %d, commodity row %d", headerIdx, targetIdx)
		e.mapByHeader(&rec, rows[headerIdx], target)
	} else {
		log.Printf("[extract] no header row recognized, falling back to positional mapping for row %d", targetIdx)
		e.mapByPosition(&rec, target)
	}

	// The source sometimes omits the total column; it is recoverable from
	// its two components.
	if rec.TotalLiveWarrants == nil && rec.OnWarrant != nil && rec.CancelledWarrants != nil {
		total := *rec.OnWarrant + *rec.CancelledWarrants
		rec.TotalLiveWarrants = &total
		log.Printf("[extract] derived total live warrants = %.2f", total)
	}

	return rec, nil
}

// findHeaderRow returns the index of the first row whose joined lowercase
// text contains both a stock indicator and a movement indicator, or -1.
func (e *Extractor) findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		joined := strings.ToLower(strings.Join(row, " "))
		if containsAny(joined, e.cfg.StockIndicators) && containsAny(joined, e.cfg.MovementIndicators) {
			return i
		}
	}
	return -1
}

// findTargetRow returns the index of the first row whose leading cell
// contains a commodity keyword, or -1.
func (e *Extractor) findTargetRow(rows [][]string) int {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		first := strings.ToLower(row[0])
		if containsAny(first, e.cfg.CommodityKeywords) {
			return i
		}
	}
	return -1
}

// mapByHeader assigns fields by matching header text against the configured
// synonym lists. First matching synonym, first matching column wins.
func (e *Extractor) mapByHeader(rec *Record, header, target []string) {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(h)
	}

	for _, field := range fieldOrder {
		col := findColumn(lowered, e.synonymsFor(field))
		if col < 0 || col >= len(target) {
			continue
		}
		rec.set(field, ParseNumber(target[col]))
	}
}

// mapByPosition assigns fields by the configured fixed column order,
// starting in the cell after the commodity label. Best effort only.
func (e *Extractor) mapByPosition(rec *Record, target []string) {
	for i, field := range e.cfg.PositionalOrder {
		col := i + 1
		if col >= len(target) {
			break
		}
		rec.set(field, ParseNumber(target[col]))
	}
}

// findReportDate scans the leading rows for the first date-like cell.
func (e *Extractor) findReportDate(rows [][]string) string {
	limit := e.cfg.DateScanRows
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	for _, row := range rows[:limit] {
		for _, cell := range row {
			if d := NormalizeDate(cell); d != "" {
				return d
			}
		}
	}
	return ""
}

func (e *Extractor) synonymsFor(field string) []string {
	syn := e.cfg.FieldSynonyms
	switch field {
	case FieldOnWarrant:
		return syn.OnWarrant
	case FieldCancelledWarrants:
		return syn.CancelledWarrants
	case FieldTotalLiveWarrants:
		return syn.TotalLiveWarrants
	case FieldDeliveredIn:
		return syn.DeliveredIn
	case FieldDeliveredOut:
		return syn.DeliveredOut
	case FieldNetChange:
		return syn.NetChange
	}
	return nil
}

func findColumn(loweredHeader []string, synonyms []string) int {
	for _, syn := range synonyms {
		for col, text := range loweredHeader {
			if strings.Contains(text, syn) {
				return col
			}
		}
	}
	return -1
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
