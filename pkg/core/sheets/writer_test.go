package sheets

import (
	"fmt"
	"testing"
	"time"

	"inventory_feed/pkg/core/extract"
)

// fakeTab is an in-memory TabClient.
type fakeTab struct {
	rows     [][]string
	appended [][]interface{}
	inserts  int
}

func (f *fakeTab) RowValues(row int) ([]string, error) {
	if row-1 < len(f.rows) {
		return f.rows[row-1], nil
	}
	return nil, nil
}

func (f *fakeTab) ColValues(col string) ([]string, error) {
	if col != "B" {
		return nil, fmt.Errorf("fakeTab only models column B, got %q", col)
	}
	var out []string
	for _, r := range f.rows {
		if len(r) > 1 {
			out = append(out, r[1])
		} else {
			out = append(out, "")
		}
	}
	return out, nil
}

func (f *fakeTab) InsertRow(row int, values []string) error {
	f.inserts++
	idx := row - 1
	f.rows = append(f.rows, nil)
	copy(f.rows[idx+1:], f.rows[idx:])
	f.rows[idx] = values
	return nil
}

func (f *fakeTab) AppendRow(values []interface{}) error {
	f.appended = append(f.appended, values)
	asStrings := make([]string, len(values))
	for i, v := range values {
		asStrings[i] = fmt.Sprintf("%v", v)
	}
	f.rows = append(f.rows, asStrings)
	return nil
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 16, 19, 0, 0, 0, time.UTC)
}

func testRecord() extract.Record {
	on, cancelled, total := 900.0, 30.0, 930.0
	in, out, net := 100.0, 50.0, 50.0
	return extract.Record{
		ReportDate:        "2024-03-15",
		OnWarrant:         &on,
		CancelledWarrants: &cancelled,
		TotalLiveWarrants: &total,
		DeliveredIn:       &in,
		DeliveredOut:      &out,
		NetChange:         &net,
	}
}

func newTestWriter(detail, dashboard *fakeTab) *Writer {
	w := NewWriter(detail, dashboard)
	w.now = fixedClock
	return w
}

func TestWriteToEmptyTabInsertsHeaderFirst(t *testing.T) {
	detail := &fakeTab{}
	dashboard := &fakeTab{}

	appended, err := newTestWriter(detail, dashboard).Write(testRecord(), "https://portal.example.com/dl/1")
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !appended {
		t.Fatal("expected a row to be appended")
	}

	if detail.inserts != 1 {
		t.Fatalf("header inserts = %d, want 1", detail.inserts)
	}
	if len(detail.rows) < 2 {
		t.Fatalf("detail tab has %d rows, want header plus data", len(detail.rows))
	}
	if detail.rows[0][0] != "Date" || len(detail.rows[0]) != 9 {
		t.Errorf("row one is not the nine-column header: %v", detail.rows[0])
	}
	if detail.rows[1][1] != "2024-03-15" {
		t.Errorf("data row not at row two: %v", detail.rows[1])
	}
}

func TestWriteDetailRowShape(t *testing.T) {
	detail := &fakeTab{rows: [][]string{{"Date", "Report Date"}}}
	dashboard := &fakeTab{}

	if _, err := newTestWriter(detail, dashboard).Write(testRecord(), "https://portal.example.com/dl/1"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if len(detail.appended) != 1 {
		t.Fatalf("detail appends = %d, want 1", len(detail.appended))
	}
	row := detail.appended[0]
	want := []interface{}{
		"2024-03-16", "2024-03-15",
		900.0, 30.0, 930.0, 100.0, 50.0, 50.0,
		"https://portal.example.com/dl/1",
	}
	if len(row) != len(want) {
		t.Fatalf("detail row has %d cells, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("detail row cell %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestWriteAbsentFieldsRenderAsEmpty(t *testing.T) {
	detail := &fakeTab{rows: [][]string{{"Date", "Report Date"}}}
	dashboard := &fakeTab{}

	on := 900.0
	rec := extract.Record{ReportDate: "2024-03-15", OnWarrant: &on}
	if _, err := newTestWriter(detail, dashboard).Write(rec, "src"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	row := detail.appended[0]
	if row[3] != "" || row[4] != "" || row[7] != "" {
		t.Errorf("absent fields should be empty strings, got %v", row)
	}
	if row[2] != 900.0 {
		t.Errorf("on-warrant cell = %v, want 900", row[2])
	}
}

func TestWriteDuplicateReportDateIsSilentNoOp(t *testing.T) {
	detail := &fakeTab{rows: [][]string{
		{"Date", "Report Date", "On Warrant"},
		{"2024-03-16", "2024-03-15", "900"},
	}}
	dashboard := &fakeTab{}

	appended, err := newTestWriter(detail, dashboard).Write(testRecord(), "src")
	if err != nil {
		t.Fatalf("duplicate must not be an error, got: %v", err)
	}
	if appended {
		t.Fatal("duplicate report date must not append")
	}
	if len(detail.appended) != 0 || len(dashboard.appended) != 0 {
		t.Errorf("rows appended despite duplicate: detail=%d dashboard=%d",
			len(detail.appended), len(dashboard.appended))
	}
}

func TestWriteDashboardMirror(t *testing.T) {
	detail := &fakeTab{rows: [][]string{{"Date", "Report Date"}}}
	dashboard := &fakeTab{}

	if _, err := newTestWriter(detail, dashboard).Write(testRecord(), "src"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if len(dashboard.appended) != 1 {
		t.Fatalf("dashboard appends = %d, want 1", len(dashboard.appended))
	}
	row := dashboard.appended[0]
	if row[0] != "2024-03-16" || row[1] != "2024-03-15" {
		t.Errorf("dashboard dates wrong: %v", row)
	}
	if row[4] != 930.0 {
		t.Errorf("dashboard total = %v, want 930", row[4])
	}
	if row[2] != "" || row[3] != "" || row[5] != "" {
		t.Errorf("other dashboard columns must stay blank: %v", row)
	}
}

func TestWriteHeaderNotDuplicated(t *testing.T) {
	detail := &fakeTab{rows: [][]string{
		{"Date", "Report Date", "On Warrant", "Cancelled Warrants", "Total Live Warrants",
			"Delivered In", "Delivered Out", "Net Change", "Source"},
	}}
	dashboard := &fakeTab{}

	if _, err := newTestWriter(detail, dashboard).Write(testRecord(), "src"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if detail.inserts != 0 {
		t.Errorf("header inserted again over an existing header")
	}
}
