package models

import "time"

// PeriodAggregate holds the summed figures for one period bucket.
type PeriodAggregate struct {
	Period   string    `json:"period"`
	Start    time.Time `json:"start"`
	Revenue  float64   `json:"revenue"`
	Quantity int       `json:"quantity"`
	Orders   int       `json:"orders"`
}

// Heatmap is the weekday × month revenue matrix. Rows are Monday-first
// weekdays, columns are calendar months, summed across all years in range.
type Heatmap struct {
	Days   [7]string      `json:"days"`
	Months [12]string     `json:"months"`
	Cells  [7][12]float64 `json:"cells"`
}

// CategoryRevenue is one slice of the category distribution, revenue-desc.
type CategoryRevenue struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Orders   int     `json:"orders"`
	Share    float64 `json:"share"`
}

// ParetoEntry is one ranked group in the 80/20 analysis. TopContributor is
// set for the minimal prefix of groups whose cumulative share first reaches
// 80% of total revenue.
type ParetoEntry struct {
	Key               string  `json:"key"`
	Revenue           float64 `json:"revenue"`
	CumulativeRevenue float64 `json:"cumulative_revenue"`
	CumulativePct     float64 `json:"cumulative_pct"`
	TopContributor    bool    `json:"top_contributor"`
}

// ParetoResult wraps the ranked entries. PctDefined is false when the grand
// total is zero, in which case percentages are reported as zero rather than
// NaN.
type ParetoResult struct {
	Entries    []ParetoEntry `json:"entries"`
	GrandTotal float64       `json:"grand_total"`
	PctDefined bool          `json:"pct_defined"`
}

// CustomerRFM is the scored recency/frequency/monetary row for one customer.
type CustomerRFM struct {
	CustomerID  string  `json:"customer_id"`
	RecencyDays int     `json:"recency_days"`
	Frequency   int     `json:"frequency"`
	Monetary    float64 `json:"monetary"`
	RScore      int     `json:"r_score"`
	FScore      int     `json:"f_score"`
	MScore      int     `json:"m_score"`
	Segment     string  `json:"segment"`
}

// SegmentSummary aggregates one RFM segment for the value-matrix view.
type SegmentSummary struct {
	Segment     string  `json:"segment"`
	Customers   int     `json:"customers"`
	AvgMonetary float64 `json:"avg_monetary"`
	AvgRecency  float64 `json:"avg_recency"`
}

// RFMResult is the full segmentation output for one analysis run.
type RFMResult struct {
	Customers     []CustomerRFM    `json:"customers"`
	Segments      []SegmentSummary `json:"segments"`
	ReferenceDate time.Time        `json:"reference_date"`
}

// Metric is a value that may be undefined (division by zero guards).
type Metric struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Delta is a period-over-period percentage change; Defined is false when
// the prior value is zero.
type Delta struct {
	Pct     float64 `json:"pct"`
	Defined bool    `json:"defined"`
}

// KPISummary holds the headline metrics for the current window plus deltas
// against the prior comparable window.
type KPISummary struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalOrders     int     `json:"total_orders"`
	AvgOrderValue   Metric  `json:"avg_order_value"`
	ActiveCustomers int     `json:"active_customers"`

	RevenueDelta   Delta `json:"revenue_delta"`
	OrdersDelta    Delta `json:"orders_delta"`
	AOVDelta       Delta `json:"aov_delta"`
	CustomersDelta Delta `json:"customers_delta"`
}
