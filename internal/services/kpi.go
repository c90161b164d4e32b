package services

import (
	"nexus-analytics/internal/models"
)

// Summarize derives the headline metrics for the current window plus
// percentage deltas against the prior comparable window (the span of equal
// length immediately preceding it). Division-by-zero conditions report an
// undefined marker instead of NaN or infinity.
func Summarize(ds models.Dataset, current models.DateRange) models.KPISummary {
	window := current
	if window.From.IsZero() {
		window.From = ds.MinDate
	}
	if window.To.IsZero() {
		window.To = ds.MaxDate
	}

	revenue, orders, customers := windowTotals(ds, window)

	summary := models.KPISummary{
		TotalRevenue:    revenue,
		TotalOrders:     orders,
		ActiveCustomers: customers,
	}
	if orders > 0 {
		summary.AvgOrderValue = models.Metric{Value: revenue / float64(orders), Defined: true}
	}

	prior, ok := priorWindow(window)
	if !ok {
		return summary
	}
	prevRevenue, prevOrders, prevCustomers := windowTotals(ds, prior)

	summary.RevenueDelta = pctDelta(revenue, prevRevenue)
	summary.OrdersDelta = pctDelta(float64(orders), float64(prevOrders))
	summary.CustomersDelta = pctDelta(float64(customers), float64(prevCustomers))
	if prevOrders > 0 {
		summary.AOVDelta = pctDelta(summary.AvgOrderValue.Value, prevRevenue/float64(prevOrders))
	}
	return summary
}

func windowTotals(ds models.Dataset, r models.DateRange) (revenue float64, orders int, customers int) {
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		if !r.Contains(rec.OrderDate) {
			continue
		}
		revenue += rec.TotalSales
		orders++
		seen[rec.CustomerID] = struct{}{}
	}
	return revenue, orders, len(seen)
}

// priorWindow returns the span of equal day length ending the day before
// the current window starts.
func priorWindow(current models.DateRange) (models.DateRange, bool) {
	if current.From.IsZero() || current.To.IsZero() || current.To.Before(current.From) {
		return models.DateRange{}, false
	}
	days := int(dateOnly(current.To).Sub(dateOnly(current.From)).Hours()/24) + 1
	to := dateOnly(current.From).AddDate(0, 0, -1)
	from := to.AddDate(0, 0, -(days - 1))
	return models.DateRange{From: from, To: to}, true
}

func pctDelta(current, prior float64) models.Delta {
	if prior == 0 {
		return models.Delta{}
	}
	return models.Delta{Pct: (current - prior) / prior * 100, Defined: true}
}
