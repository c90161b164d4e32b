package models

import "time"

// Record is one canonical sale line. Records are immutable once produced;
// a Dataset keeps them in insertion order for display, aggregation does not
// depend on order.
type Record struct {
	OrderDate  time.Time `json:"order_date"`
	CustomerID string    `json:"customer_id"`
	Category   string    `json:"category"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	TotalSales float64   `json:"total_sales"`
}

// Dataset is the validated record set plus its derived date bounds.
// Every record has a non-zero date, a non-empty customer id and
// non-negative quantity and sales.
type Dataset struct {
	Records []Record  `json:"records"`
	MinDate time.Time `json:"min_date"`
	MaxDate time.Time `json:"max_date"`
}

// NewDataset builds a Dataset from already-validated records, deriving the
// min/max date bounds.
func NewDataset(records []Record) Dataset {
	ds := Dataset{Records: records}
	for _, r := range records {
		if ds.MinDate.IsZero() || r.OrderDate.Before(ds.MinDate) {
			ds.MinDate = r.OrderDate
		}
		if r.OrderDate.After(ds.MaxDate) {
			ds.MaxDate = r.OrderDate
		}
	}
	return ds
}

func (d Dataset) Empty() bool {
	return len(d.Records) == 0
}

// Granularity selects the bucket size for period aggregation.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// GroupKey selects the grouping dimension for Pareto analysis.
type GroupKey string

const (
	GroupByProduct  GroupKey = "product"
	GroupByCategory GroupKey = "category"
)

func (k GroupKey) Valid() bool {
	return k == GroupByProduct || k == GroupByCategory
}

// DateRange is an optional inclusive [From, To] filter. A zero bound means
// unbounded on that side.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// GeneratorParams configures the synthetic data generator. All fields are
// externally supplied; Seed makes the output reproducible.
type GeneratorParams struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	Seed              int64     `json:"seed"`
	BaseDailyOrders   int       `json:"base_daily_orders"`
	SeasonalAmplitude float64   `json:"seasonal_amplitude"`
	WeekendBoost      float64   `json:"weekend_boost"`
	Categories        []string  `json:"categories"`
	Customers         int       `json:"customers"`
}
