package services

import (
	"slices"
	"strings"

	"nexus-analytics/internal/models"
)

// paretoCutoff is the cumulative-share line the 80/20 analysis is built
// around.
const paretoCutoff = 80.0

// ParetoByKey groups the filtered records by product or category, ranks the
// groups by revenue (ties broken by key) and computes running cumulative
// revenue and cumulative percentage of the grand total. TopContributor
// marks the minimal prefix of groups whose cumulative share first reaches
// the 80% line.
func ParetoByKey(ds models.Dataset, key models.GroupKey, r models.DateRange) models.ParetoResult {
	revenue := make(map[string]float64)
	grandTotal := 0.0
	for _, rec := range ds.Records {
		if !r.Contains(rec.OrderDate) {
			continue
		}
		k := rec.ProductID
		if key == models.GroupByCategory {
			k = rec.Category
		}
		revenue[k] += rec.TotalSales
		grandTotal += rec.TotalSales
	}

	entries := make([]models.ParetoEntry, 0, len(revenue))
	for k, v := range revenue {
		entries = append(entries, models.ParetoEntry{Key: k, Revenue: v})
	}
	slices.SortFunc(entries, func(a, b models.ParetoEntry) int {
		if a.Revenue != b.Revenue {
			if a.Revenue > b.Revenue {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})

	result := models.ParetoResult{
		Entries:    entries,
		GrandTotal: grandTotal,
		PctDefined: grandTotal > 0,
	}

	cumulative := 0.0
	for i := range result.Entries {
		prevPct := 0.0
		if result.PctDefined {
			prevPct = cumulative / grandTotal * 100
		}
		cumulative += result.Entries[i].Revenue
		result.Entries[i].CumulativeRevenue = cumulative
		if result.PctDefined {
			result.Entries[i].CumulativePct = cumulative / grandTotal * 100
			// A group belongs to the top prefix while the line has not
			// been reached before it.
			result.Entries[i].TopContributor = prevPct < paretoCutoff
		}
	}
	return result
}
