// Package sheets adapts the Google Sheets API to the worksheet operations
// the orchestrator needs: header lookup, column reads and row appends.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"leadharvest/internal/harvest"
)

// Config identifies the target spreadsheet.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	Worksheet       string
}

// Opener builds an authenticated worksheet handle per orchestration run.
// Opening validates credentials and spreadsheet reachability, so its errors
// are batch-fatal for the calling task.
type Opener struct {
	cfg    Config
	opts   []option.ClientOption
	logger *zap.Logger
}

// NewOpener constructs an Opener. Extra client options are only used by
// tests to redirect the API endpoint.
func NewOpener(cfg Config, logger *zap.Logger, opts ...option.ClientOption) *Opener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{cfg: cfg, opts: opts, logger: logger}
}

// Open authenticates against the Sheets API and returns a worksheet handle.
func (o *Opener) Open(ctx context.Context) (harvest.Worksheet, error) {
	opts := o.opts
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(o.cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	o.logger.Debug("sheets service ready", zap.String("spreadsheet_id", o.cfg.SpreadsheetID))
	return &worksheet{
		svc:           svc,
		spreadsheetID: o.cfg.SpreadsheetID,
		name:          o.cfg.Worksheet,
	}, nil
}

type worksheet struct {
	svc           *sheets.Service
	spreadsheetID string
	name          string
}

// HeaderMap reads the first row and maps header name to its 1-based column.
func (w *worksheet) HeaderMap(ctx context.Context) (map[string]int, error) {
	rng := fmt.Sprintf("%s!1:1", w.name)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	headers := map[string]int{}
	if len(resp.Values) == 0 {
		return headers, nil
	}
	for i, cell := range resp.Values[0] {
		headers[fmt.Sprint(cell)] = i + 1
	}
	return headers, nil
}

// ColumnValues reads one column, excluding the header row.
func (w *worksheet) ColumnValues(ctx context.Context, column int) (map[string]struct{}, error) {
	letter := columnLetter(column)
	rng := fmt.Sprintf("%s!%s2:%s", w.name, letter, letter)
	resp, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read column %s: %w", letter, err)
	}
	values := map[string]struct{}{}
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v := fmt.Sprint(row[0]); v != "" {
			values[v] = struct{}{}
		}
	}
	return values, nil
}

// AppendRow appends one row after the sheet's data region.
func (w *worksheet) AppendRow(ctx context.Context, row []string) error {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	vr := &sheets.ValueRange{Values: [][]any{cells}}
	_, err := w.svc.Spreadsheets.Values.
		Append(w.spreadsheetID, fmt.Sprintf("%s!A1", w.name), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// columnLetter converts a 1-based column index to its A1 notation letters.
func columnLetter(column int) string {
	letters := ""
	for column > 0 {
		column--
		letters = string(rune('A'+column%26)) + letters
		column /= 26
	}
	return letters
}
