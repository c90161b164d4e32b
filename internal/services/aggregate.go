package services

import (
	"slices"
	"strings"
	"time"

	"nexus-analytics/internal/models"
)

// AggregateByPeriod buckets the filtered records at the given granularity
// and returns one aggregate per period, ordered by period start. Periods
// inside the covered range with no records are included with zero sums so
// downstream charts have no gaps.
func AggregateByPeriod(ds models.Dataset, g models.Granularity, r models.DateRange) []models.PeriodAggregate {
	buckets := make(map[time.Time]*models.PeriodAggregate)

	var lo, hi time.Time
	for _, rec := range ds.Records {
		if !r.Contains(rec.OrderDate) {
			continue
		}
		start := periodStart(rec.OrderDate, g)
		agg := buckets[start]
		if agg == nil {
			agg = &models.PeriodAggregate{Period: periodLabel(start, g), Start: start}
			buckets[start] = agg
		}
		agg.Revenue += rec.TotalSales
		agg.Quantity += rec.Quantity
		agg.Orders++

		if lo.IsZero() || start.Before(lo) {
			lo = start
		}
		if start.After(hi) {
			hi = start
		}
	}

	// An explicit filter bound widens the fill range beyond the data.
	if !r.From.IsZero() {
		lo = periodStart(r.From, g)
	}
	if !r.To.IsZero() {
		hi = periodStart(r.To, g)
	}
	if lo.IsZero() || hi.IsZero() || hi.Before(lo) {
		return []models.PeriodAggregate{}
	}

	result := make([]models.PeriodAggregate, 0, len(buckets))
	for start := lo; !start.After(hi); start = nextPeriod(start, g) {
		if agg, ok := buckets[start]; ok {
			result = append(result, *agg)
		} else {
			result = append(result, models.PeriodAggregate{Period: periodLabel(start, g), Start: start})
		}
	}
	return result
}

func periodStart(t time.Time, g models.Granularity) time.Time {
	switch g {
	case models.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case models.GranularityYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return dateOnly(t)
	}
}

func periodLabel(start time.Time, g models.Granularity) string {
	switch g {
	case models.GranularityMonth:
		return start.Format("2006-01")
	case models.GranularityYear:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

func nextPeriod(start time.Time, g models.Granularity) time.Time {
	switch g {
	case models.GranularityMonth:
		return start.AddDate(0, 1, 0)
	case models.GranularityYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// RevenueHeatmap sums revenue into a weekday × month matrix over the
// filtered range, across all years, surfacing demand patterns independent
// of the year. Rows are Monday-first.
func RevenueHeatmap(ds models.Dataset, r models.DateRange) models.Heatmap {
	var hm models.Heatmap
	for i := 0; i < 7; i++ {
		hm.Days[i] = time.Weekday((i + 1) % 7).String()
	}
	for i := 0; i < 12; i++ {
		hm.Months[i] = time.Month(i + 1).String()
	}

	for _, rec := range ds.Records {
		if !r.Contains(rec.OrderDate) {
			continue
		}
		day := (int(rec.OrderDate.Weekday()) + 6) % 7
		month := int(rec.OrderDate.Month()) - 1
		hm.Cells[day][month] += rec.TotalSales
	}
	return hm
}

// CategoryDistribution sums revenue per category over the filtered range,
// ordered revenue-desc with name as the tie-break. Share is each category's
// fraction of the filtered total.
func CategoryDistribution(ds models.Dataset, r models.DateRange) []models.CategoryRevenue {
	groups := make(map[string]*models.CategoryRevenue)
	total := 0.0
	for _, rec := range ds.Records {
		if !r.Contains(rec.OrderDate) {
			continue
		}
		cr := groups[rec.Category]
		if cr == nil {
			cr = &models.CategoryRevenue{Category: rec.Category}
			groups[rec.Category] = cr
		}
		cr.Revenue += rec.TotalSales
		cr.Orders++
		total += rec.TotalSales
	}

	result := make([]models.CategoryRevenue, 0, len(groups))
	for _, cr := range groups {
		if total > 0 {
			cr.Share = cr.Revenue / total
		}
		result = append(result, *cr)
	}
	slices.SortFunc(result, func(a, b models.CategoryRevenue) int {
		if a.Revenue != b.Revenue {
			if a.Revenue > b.Revenue {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Category, b.Category)
	})
	return result
}

// filterRecords narrows a dataset to the records inside the range,
// recomputing the date bounds.
func filterRecords(ds models.Dataset, r models.DateRange) models.Dataset {
	if r.From.IsZero() && r.To.IsZero() {
		return ds
	}
	kept := make([]models.Record, 0, len(ds.Records))
	for _, rec := range ds.Records {
		if r.Contains(rec.OrderDate) {
			kept = append(kept, rec)
		}
	}
	return models.NewDataset(kept)
}
