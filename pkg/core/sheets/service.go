// Package sheets writes normalized feed rows to the destination Google
// spreadsheet. The append/read heuristics live in Writer against the narrow
// TabClient interface; Service and Tab are the Google-backed implementation.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Service wraps the Sheets v4 API for one spreadsheet, resolved by its
// human-readable name through the Drive API.
type Service struct {
	api           *sheetsapi.Service
	spreadsheetID string
	sheetIDs      map[string]int64
}

// NewService authenticates with the service-account JSON key, resolves the
// named spreadsheet via Drive, and loads its tab metadata.
func NewService(ctx context.Context, serviceAccountJSON []byte, spreadsheetName string) (*Service, error) {
	opts := []option.ClientOption{
		option.WithCredentialsJSON(serviceAccountJSON),
		option.WithScopes(sheetsapi.SpreadsheetsScope, drive.DriveScope),
	}

	api, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	driveAPI, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	id, err := findSpreadsheetID(driveAPI, spreadsheetName)
	if err != nil {
		return nil, err
	}

	meta, err := api.Spreadsheets.Get(id).Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to load spreadsheet metadata: %w", err)
	}

	sheetIDs := make(map[string]int64, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}

	return &Service{api: api, spreadsheetID: id, sheetIDs: sheetIDs}, nil
}

// findSpreadsheetID looks up a spreadsheet by exact name.
func findSpreadsheetID(driveAPI *drive.Service, name string) (string, error) {
	escaped := strings.ReplaceAll(name, `'`, `\'`)
	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", escaped)

	list, err := driveAPI.Files.List().Q(query).Fields("files(id, name)").PageSize(2).Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for spreadsheet %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("spreadsheet %q not found or not shared with the service account", name)
	}
	return list.Files[0].Id, nil
}

// Tab returns a handle to the named worksheet tab.
func (s *Service) Tab(name string) (*Tab, error) {
	sheetID, ok := s.sheetIDs[name]
	if !ok {
		return nil, fmt.Errorf("spreadsheet has no tab named %q", name)
	}
	return &Tab{svc: s, name: name, sheetID: sheetID}, nil
}

// Tab implements TabClient against one worksheet tab.
type Tab struct {
	svc     *Service
	name    string
	sheetID int64
}

// RowValues returns the cells of a 1-based row as strings.
func (t *Tab) RowValues(row int) ([]string, error) {
	rng := fmt.Sprintf("'%s'!%d:%d", t.name, row, row)
	resp, err := t.svc.api.Spreadsheets.Values.Get(t.svc.spreadsheetID, rng).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return cellsToStrings(resp.Values[0]), nil
}

// ColValues returns the full contents of a column, one string per occupied
// row.
func (t *Tab) ColValues(col string) ([]string, error) {
	rng := fmt.Sprintf("'%s'!%s:%s", t.name, col, col)
	resp, err := t.svc.api.Spreadsheets.Values.Get(t.svc.spreadsheetID, rng).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}

	values := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprintf("%v", row[0]))
	}
	return values, nil
}

// InsertRow inserts a new row at the 1-based position and fills it.
func (t *Tab) InsertRow(row int, values []string) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			InsertDimension: &sheetsapi.InsertDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    t.sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := t.svc.api.Spreadsheets.BatchUpdate(t.svc.spreadsheetID, req).Do(); err != nil {
		return fmt.Errorf("failed to insert row %d in tab %q: %w", row, t.name, err)
	}

	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{cells}}
	rng := fmt.Sprintf("'%s'!A%d", t.name, row)
	_, err := t.svc.api.Spreadsheets.Values.Update(t.svc.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Do()
	if err != nil {
		return fmt.Errorf("failed to write inserted row %d in tab %q: %w", row, t.name, err)
	}
	return nil
}

// AppendRow appends one row after the last occupied row. Values go in as
// USER_ENTERED so numeric strings become numbers, the way a human typing
// them would.
func (t *Tab) AppendRow(values []interface{}) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{values}}
	rng := fmt.Sprintf("'%s'!A1", t.name)
	_, err := t.svc.api.Spreadsheets.Values.Append(t.svc.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").Do()
	if err != nil {
		return fmt.Errorf("failed to append row to tab %q: %w", t.name, err)
	}
	return nil
}

func cellsToStrings(cells []interface{}) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprintf("%v", c)
	}
	return out
}
