package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func TestColumnLetter(t *testing.T) {
	t.Parallel()

	cases := map[int]string{
		1:  "A",
		2:  "B",
		26: "Z",
		27: "AA",
		28: "AB",
		52: "AZ",
		53: "BA",
	}
	for column, want := range cases {
		require.Equal(t, want, columnLetter(column), "column %d", column)
	}
}

// newFakeSheet serves the subset of the Sheets values API the worksheet
// uses, capturing append bodies.
func newFakeSheet(t *testing.T, valuesByRange map[string][][]any, appended *[][]any) *Opener {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/spreadsheets/sheet-1/values/", func(w http.ResponseWriter, r *http.Request) {
		rng := r.URL.Path[len("/v4/spreadsheets/sheet-1/values/"):]
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":  rng,
			"values": valuesByRange[rng],
		})
	})
	mux.HandleFunc("/v4/spreadsheets/sheet-1/values/Sheet1!A1:append", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Values [][]any `json:"values"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*appended = append(*appended, body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewOpener(
		Config{SpreadsheetID: "sheet-1", Worksheet: "Sheet1"},
		zap.NewNop(),
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
	)
}

func TestWorksheet_HeaderMap(t *testing.T) {
	t.Parallel()

	opener := newFakeSheet(t, map[string][][]any{
		"Sheet1!1:1": {{"link", "title", "emails"}},
	}, nil)

	ws, err := opener.Open(context.Background())
	require.NoError(t, err)

	headers, err := ws.HeaderMap(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"link": 1, "title": 2, "emails": 3}, headers)
}

func TestWorksheet_HeaderMap_EmptySheet(t *testing.T) {
	t.Parallel()

	opener := newFakeSheet(t, map[string][][]any{}, nil)

	ws, err := opener.Open(context.Background())
	require.NoError(t, err)

	headers, err := ws.HeaderMap(context.Background())
	require.NoError(t, err)
	require.Empty(t, headers)
}

func TestWorksheet_ColumnValues_SkipsHeaderAndBlanks(t *testing.T) {
	t.Parallel()

	opener := newFakeSheet(t, map[string][][]any{
		"Sheet1!B2:B": {{"https://jobs/1"}, {}, {"https://jobs/2"}, {""}},
	}, nil)

	ws, err := opener.Open(context.Background())
	require.NoError(t, err)

	values, err := ws.ColumnValues(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, map[string]struct{}{
		"https://jobs/1": {},
		"https://jobs/2": {},
	}, values)
}

func TestWorksheet_AppendRow(t *testing.T) {
	t.Parallel()

	var appended [][]any
	opener := newFakeSheet(t, map[string][][]any{}, &appended)

	ws, err := opener.Open(context.Background())
	require.NoError(t, err)

	require.NoError(t, ws.AppendRow(context.Background(), []string{"a", "", "c"}))
	require.Len(t, appended, 1)
	require.Equal(t, []any{"a", "", "c"}, appended[0])
}
