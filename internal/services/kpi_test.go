package services

import (
	"math"
	"testing"

	"nexus-analytics/internal/models"
)

func TestSummarize_Basic(t *testing.T) {
	ds := models.NewDataset([]models.Record{
		rec(day(2024, 1, 1), "C1", "Tech", "P1", 2, 100),
		rec(day(2024, 1, 2), "C1", "Tech", "P2", 1, 50),
	})

	s := Summarize(ds, models.DateRange{})
	if s.TotalRevenue != 150 {
		t.Errorf("TotalRevenue = %f, want 150", s.TotalRevenue)
	}
	if s.TotalOrders != 2 {
		t.Errorf("TotalOrders = %d, want 2", s.TotalOrders)
	}
	if s.ActiveCustomers != 1 {
		t.Errorf("ActiveCustomers = %d, want 1", s.ActiveCustomers)
	}
	if !s.AvgOrderValue.Defined || s.AvgOrderValue.Value != 75 {
		t.Errorf("AvgOrderValue = %+v, want defined 75", s.AvgOrderValue)
	}
	// No data exists before the window, so every delta is undefined.
	if s.RevenueDelta.Defined || s.OrdersDelta.Defined || s.CustomersDelta.Defined || s.AOVDelta.Defined {
		t.Errorf("deltas against an empty prior window should be undefined: %+v", s)
	}
}

func TestSummarize_EmptyDataset(t *testing.T) {
	s := Summarize(models.NewDataset(nil), models.DateRange{})
	if s.TotalRevenue != 0 || s.TotalOrders != 0 || s.ActiveCustomers != 0 {
		t.Errorf("empty dataset totals = %+v, want zeros", s)
	}
	if s.AvgOrderValue.Defined {
		t.Error("AvgOrderValue should be undefined with zero orders")
	}
}

func TestSummarize_DeltasAgainstPriorWindow(t *testing.T) {
	ds := models.NewDataset([]models.Record{
		// Prior week: one customer, 100 revenue over 2 orders.
		rec(day(2024, 1, 3), "C1", "Tech", "P1", 1, 60),
		rec(day(2024, 1, 5), "C1", "Tech", "P2", 1, 40),
		// Current week: two customers, 150 revenue over 2 orders.
		rec(day(2024, 1, 9), "C1", "Tech", "P1", 1, 90),
		rec(day(2024, 1, 12), "C2", "Tech", "P2", 1, 60),
	})

	current := models.DateRange{From: day(2024, 1, 8), To: day(2024, 1, 14)}
	s := Summarize(ds, current)

	if s.TotalRevenue != 150 || s.TotalOrders != 2 || s.ActiveCustomers != 2 {
		t.Fatalf("current window totals = %+v", s)
	}
	if !s.RevenueDelta.Defined || math.Abs(s.RevenueDelta.Pct-50) > 1e-9 {
		t.Errorf("RevenueDelta = %+v, want +50%%", s.RevenueDelta)
	}
	if !s.OrdersDelta.Defined || s.OrdersDelta.Pct != 0 {
		t.Errorf("OrdersDelta = %+v, want 0%%", s.OrdersDelta)
	}
	if !s.CustomersDelta.Defined || math.Abs(s.CustomersDelta.Pct-100) > 1e-9 {
		t.Errorf("CustomersDelta = %+v, want +100%%", s.CustomersDelta)
	}
	// AOV moved from 50 to 75.
	if !s.AOVDelta.Defined || math.Abs(s.AOVDelta.Pct-50) > 1e-9 {
		t.Errorf("AOVDelta = %+v, want +50%%", s.AOVDelta)
	}
}

func TestSummarize_WindowExcludesOutsideRecords(t *testing.T) {
	ds := models.NewDataset([]models.Record{
		rec(day(2024, 1, 15), "C1", "Tech", "P1", 1, 100),
		rec(day(2024, 5, 1), "C2", "Tech", "P1", 1, 999),
	})

	s := Summarize(ds, models.DateRange{From: day(2024, 1, 1), To: day(2024, 1, 31)})
	if s.TotalRevenue != 100 || s.TotalOrders != 1 || s.ActiveCustomers != 1 {
		t.Errorf("windowed totals = %+v, want only January", s)
	}
}

func TestPriorWindow(t *testing.T) {
	tests := []struct {
		name     string
		current  models.DateRange
		wantFrom string
		wantTo   string
		wantOK   bool
	}{
		{
			name:     "one week",
			current:  models.DateRange{From: day(2024, 1, 8), To: day(2024, 1, 14)},
			wantFrom: "2024-01-01",
			wantTo:   "2024-01-07",
			wantOK:   true,
		},
		{
			name:     "single day",
			current:  models.DateRange{From: day(2024, 3, 10), To: day(2024, 3, 10)},
			wantFrom: "2024-03-09",
			wantTo:   "2024-03-09",
			wantOK:   true,
		},
		{
			name:    "unbounded",
			current: models.DateRange{},
			wantOK:  false,
		},
		{
			name:    "inverted",
			current: models.DateRange{From: day(2024, 2, 1), To: day(2024, 1, 1)},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior, ok := priorWindow(tt.current)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got := prior.From.Format("2006-01-02"); got != tt.wantFrom {
				t.Errorf("From = %s, want %s", got, tt.wantFrom)
			}
			if got := prior.To.Format("2006-01-02"); got != tt.wantTo {
				t.Errorf("To = %s, want %s", got, tt.wantTo)
			}
		})
	}
}

func TestPctDelta(t *testing.T) {
	if d := pctDelta(150, 100); !d.Defined || d.Pct != 50 {
		t.Errorf("pctDelta(150, 100) = %+v", d)
	}
	if d := pctDelta(50, 100); !d.Defined || d.Pct != -50 {
		t.Errorf("pctDelta(50, 100) = %+v", d)
	}
	if d := pctDelta(100, 0); d.Defined {
		t.Errorf("pctDelta over zero prior should be undefined, got %+v", d)
	}
}
