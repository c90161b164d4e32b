package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "nexus-analytics/internal/errors"
	"nexus-analytics/internal/models"
	"nexus-analytics/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededAnalytics() *services.Analytics {
	analytics := services.NewAnalytics(testLogger())
	analytics.SetData(models.NewDataset([]models.Record{
		{OrderDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), CustomerID: "C1", Category: "Tech", ProductID: "P1", Quantity: 2, TotalSales: 100},
		{OrderDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), CustomerID: "C2", Category: "Office", ProductID: "P2", Quantity: 1, TotalSales: 50},
	}), 0, "test")
	return analytics
}

func testAPIHandlers() *APIHandlers {
	defaults := models.GeneratorParams{
		Start:             time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:               time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Seed:              42,
		BaseDailyOrders:   5,
		SeasonalAmplitude: 0.3,
		WeekendBoost:      0.25,
		Categories:        []string{"Tech", "Office"},
		Customers:         20,
	}
	return NewAPIHandlers(seededAnalytics(), defaults, 1<<20, testLogger())
}

func decodeError(t *testing.T, body io.Reader) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func TestHandleKPIs(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/api/kpis", nil)
	w := httptest.NewRecorder()

	h.HandleKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var resp struct {
		Data    models.KPISummary `json:"data"`
		Success bool              `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success should be true")
	}
	if resp.Data.TotalRevenue != 150 || resp.Data.TotalOrders != 2 {
		t.Errorf("kpis = %+v", resp.Data)
	}
}

func TestHandleKPIs_BadRange(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/api/kpis?from=not-a-date", nil)
	w := httptest.NewRecorder()

	h.HandleKPIs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w.Body)
	if resp.Success || resp.Error.Code != apperrors.CodeBadRequest {
		t.Errorf("error envelope = %+v", resp)
	}
}

func TestHandleRevenueTrend(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"default granularity", "/api/revenue-trend", http.StatusOK},
		{"day granularity", "/api/revenue-trend?granularity=day", http.StatusOK},
		{"year granularity", "/api/revenue-trend?granularity=year", http.StatusOK},
		{"invalid granularity", "/api/revenue-trend?granularity=week", http.StatusBadRequest},
		{"inverted range", "/api/revenue-trend?from=2024-02-01&to=2024-01-01", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testAPIHandlers()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()

			h.HandleRevenueTrend(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				Data    []models.PeriodAggregate `json:"data"`
				Success bool                     `json:"success"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(resp.Data) == 0 {
				t.Error("expected at least one period bucket")
			}
		})
	}
}

func TestHandlePareto_InvalidKey(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/api/pareto?by=customer", nil)
	w := httptest.NewRecorder()

	h.HandlePareto(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandlePareto_ByCategory(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/api/pareto?by=category", nil)
	w := httptest.NewRecorder()

	h.HandlePareto(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data    models.ParetoResult `json:"data"`
		Success bool                `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Entries) != 2 || resp.Data.Entries[0].Key != "Tech" {
		t.Errorf("pareto = %+v", resp.Data)
	}
}

func TestHandleRFMExport(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/api/rfm/export", nil)
	w := httptest.NewRecorder()

	h.HandleRFMExport(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "rfm_segments.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	first, _, _ := strings.Cut(w.Body.String(), "\n")
	if first != "CustomerID,Recency,Frequency,Monetary,R_Score,F_Score,M_Score,Segment" {
		t.Errorf("header row = %q", first)
	}
}

func TestHandleUpload(t *testing.T) {
	h := testAPIHandlers()
	body := strings.Join([]string{
		"OrderDate,CustomerID,Category,ProductID,Quantity,TotalSales",
		"2024-01-01,C1,Tech,P1,2,100",
		"bad-date,C1,Tech,P1,1,10",
	}, "\n")
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Records     int `json:"records"`
			DroppedRows int `json:"dropped_rows"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Records != 1 || resp.Data.DroppedRows != 1 {
		t.Errorf("upload result = %+v", resp.Data)
	}
}

func TestHandleUpload_MissingColumns(t *testing.T) {
	h := testAPIHandlers()
	body := "OrderDate,Category\n2024-01-01,Tech\n"
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeError(t, w.Body)
	if resp.Error.Code != apperrors.CodeSchema {
		t.Errorf("error code = %q, want %q", resp.Error.Code, apperrors.CodeSchema)
	}
	if !strings.Contains(resp.Error.Message, "CustomerID") {
		t.Errorf("message should name missing columns, got %q", resp.Error.Message)
	}
}

func TestHandleUpload_TooLarge(t *testing.T) {
	h := NewAPIHandlers(seededAnalytics(), models.GeneratorParams{}, 16, testLogger())
	body := strings.Repeat("x", 1024)
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/upload", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleUpload(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	resp := decodeError(t, w.Body)
	if resp.Error.Code != apperrors.CodePayloadTooLarge {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestHandleGenerate_Defaults(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/generate", nil)
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Records int   `json:"records"`
			Seed    int64 `json:"seed"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Records == 0 {
		t.Error("expected generated records")
	}
	if resp.Data.Seed != 42 {
		t.Errorf("seed = %d, want configured default 42", resp.Data.Seed)
	}
}

func TestHandleGenerate_Overrides(t *testing.T) {
	h := testAPIHandlers()
	payload, _ := json.Marshal(map[string]any{
		"start": "2024-06-01",
		"end":   "2024-06-07",
		"seed":  7,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/dataset/generate", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.HandleGenerate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Seed int64 `json:"seed"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Seed != 7 {
		t.Errorf("seed = %d, want override 7", resp.Data.Seed)
	}
}

func TestHandleGenerate_BadPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"bad start date", `{"start": "June 1st"}`},
		{"bad end date", `{"end": "2024/06/07"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testAPIHandlers()
			req := httptest.NewRequest(http.MethodPost, "/api/dataset/generate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.HandleGenerate(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data["status"] != "healthy" {
		t.Errorf("status field = %q", resp.Data["status"])
	}
}

func TestHandleStats(t *testing.T) {
	h := testAPIHandlers()
	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data["record_count"] != float64(2) {
		t.Errorf("record_count = %v, want 2", resp.Data["record_count"])
	}
	if resp.Data["source"] != "test" {
		t.Errorf("source = %v", resp.Data["source"])
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"no filters", "/api/kpis", false},
		{"from only", "/api/kpis?from=2024-01-01", false},
		{"to only", "/api/kpis?to=2024-12-31", false},
		{"both", "/api/kpis?from=2024-01-01&to=2024-12-31", false},
		{"bad from", "/api/kpis?from=01-01-2024", true},
		{"bad to", "/api/kpis?to=tomorrow", true},
		{"to precedes from", "/api/kpis?from=2024-06-01&to=2024-01-01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			_, err := parseRange(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseRange() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
