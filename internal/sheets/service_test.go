package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"billbook/pkg/models"
	"billbook/pkg/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-d_9/edit#gid=0", "1AbC-d_9", false},
		{"https://docs.google.com/spreadsheets/d/xyz", "xyz", false},
		{"https://example.com/not-a-sheet", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func payload() *services.ExportPayload {
	return &services.ExportPayload{
		DocumentType: models.Invoice,
		Title:        "INVOICE",
		BillNumber:   "INV-008",
		BillDate:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		StatusLabel:  "Partial",
		Client:       models.Party{Name: "Mr. Patil"},
		Rows: []services.ExportRow{
			{Index: 1, Description: "Wall plaster", Unit: "sq.ft", TotalQty: 120, Rate: 45, Amount: decimal.NewFromInt(5400)},
			{Index: 2, Description: "River sand", Unit: "brass", TotalQty: 4.8, Rate: 4000, Amount: decimal.NewFromInt(19200)},
		},
		GSTEnabled: true,
		GSTRate:    18,
		Totals: models.Totals{
			SubTotal:   decimal.NewFromInt(24600),
			GST:        decimal.NewFromInt(4428),
			GrandTotal: decimal.NewFromInt(29028),
			Advance:    decimal.NewFromInt(10000),
			Balance:    decimal.NewFromInt(19028),
		},
		DisplayBalance: decimal.NewFromInt(19028),
	}
}

func TestBillValues(t *testing.T) {
	at := time.Date(2024, 6, 3, 14, 5, 0, 0, time.UTC)
	values := billValues(payload(), at)

	require.Len(t, values, 3)
	for _, row := range values {
		assert.Len(t, row, columnCount)
	}
	assert.Equal(t, "INV-008", values[0][1])
	assert.Equal(t, "03.06.2024", values[0][2])
	assert.Equal(t, "Wall plaster", values[0][5])
	assert.Equal(t, 4.8, values[1][8])
	assert.Equal(t, 19200.0, values[1][10])
	assert.Equal(t, "03.06.2024 14:05:00", values[1][15])

	total := values[2]
	assert.Equal(t, "TOTAL", total[5])
	assert.Equal(t, 24600.0, total[10])
	assert.Equal(t, 4428.0, total[11])
	assert.Equal(t, 29028.0, total[12])
	assert.Equal(t, 19028.0, total[13])
}

// fakeSheetsAPI records the calls WriteBill makes against the Sheets REST API.
type fakeSheetsAPI struct {
	mu          sync.Mutex
	sheetExists bool
	hasHeaders  bool
	addedSheet  bool
	headerRow   []interface{}
	appended    [][]interface{}
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []map[string]json.RawMessage `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Requests) > 0 {
			if _, ok := req.Requests[0]["addSheet"]; ok {
				f.addedSheet = true
				_, _ = w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":7,"title":"Bills"}}}]}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"replies":[]}`))

	case strings.HasSuffix(path, ":append"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.appended = append(f.appended, body.Values...)
		_, _ = w.Write([]byte(`{}`))

	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Values) > 0 {
			f.headerRow = body.Values[0]
		}
		_, _ = w.Write([]byte(`{}`))

	case strings.Contains(path, "/values/"):
		if f.hasHeaders {
			_, _ = w.Write([]byte(`{"values":[["Type"]]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))

	default:
		if f.sheetExists {
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":3,"title":"Bills"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":0,"title":"Sheet1"}}]}`))
	}
}

func newTestService(t *testing.T, api *fakeSheetsAPI) *Service {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	s, err := NewServiceWithOptions(context.Background(),
		"https://docs.google.com/spreadsheets/d/sheet123/edit",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestWriteBillCreatesSheetAndHeaders(t *testing.T) {
	api := &fakeSheetsAPI{}
	s := newTestService(t, api)

	require.NoError(t, s.WriteBill(context.Background(), payload(), "Bills"))

	assert.True(t, api.addedSheet)
	require.Len(t, api.headerRow, columnCount)
	assert.Equal(t, "Type", api.headerRow[0])
	require.Len(t, api.appended, 3)
	assert.Equal(t, "Wall plaster", api.appended[0][5])
	assert.Equal(t, "TOTAL", api.appended[2][5])
}

func TestWriteBillReusesExistingSheet(t *testing.T) {
	api := &fakeSheetsAPI{sheetExists: true, hasHeaders: true}
	s := newTestService(t, api)

	require.NoError(t, s.WriteBill(context.Background(), payload(), "Bills"))

	assert.False(t, api.addedSheet)
	assert.Nil(t, api.headerRow)
	assert.Len(t, api.appended, 3)
}

func TestNewServiceRejectsBadURL(t *testing.T) {
	_, err := NewServiceWithOptions(context.Background(), "https://example.com", option.WithoutAuthentication())
	assert.Error(t, err)
}
