package services

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"nexus-analytics/internal/models"
)

// Segment labels, in rule precedence order.
const (
	SegmentChampions = "Champions"
	SegmentPromising = "Promising"
	SegmentAtRisk    = "At Risk"
	SegmentLost      = "Lost"
	SegmentStandard  = "Standard"
)

// segmentRule is one guard clause of the classification; the first matching
// rule wins, so precedence is auditable rule-by-rule.
type segmentRule struct {
	name  string
	match func(r, f, m int) bool
}

var segmentRules = []segmentRule{
	{SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{SegmentPromising, func(r, f, m int) bool { return r >= 4 && (f >= 3 || m >= 3) }},
	{SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{SegmentLost, func(r, f, m int) bool { return r <= 2 && f <= 2 && m <= 2 }},
}

func classifySegment(r, f, m int) string {
	for _, rule := range segmentRules {
		if rule.match(r, f, m) {
			return rule.name
		}
	}
	return SegmentStandard
}

// ComputeRFM scores every customer in the dataset on recency, frequency and
// monetary value and assigns a segment. Quintile boundaries are value-based
// quantile cut points recomputed over the current customer population on
// every call; equal raw values always land in the same bucket, with
// boundary ties resolving in the customer's favor (frequency and monetary
// buckets are inclusive of the cut, recency buckets are exclusive before
// inversion). A zero reference date defaults to the dataset's max order
// date plus one day.
func ComputeRFM(ds models.Dataset, reference time.Time) models.RFMResult {
	if ds.Empty() {
		return models.RFMResult{
			Customers: []models.CustomerRFM{},
			Segments:  []models.SegmentSummary{},
		}
	}
	if reference.IsZero() {
		reference = ds.MaxDate.AddDate(0, 0, 1)
	}

	type rawRFM struct {
		lastOrder time.Time
		frequency int
		monetary  float64
	}
	perCustomer := make(map[string]*rawRFM)
	for _, rec := range ds.Records {
		raw := perCustomer[rec.CustomerID]
		if raw == nil {
			raw = &rawRFM{}
			perCustomer[rec.CustomerID] = raw
		}
		if rec.OrderDate.After(raw.lastOrder) {
			raw.lastOrder = rec.OrderDate
		}
		raw.frequency++
		raw.monetary += rec.TotalSales
	}

	customers := make([]models.CustomerRFM, 0, len(perCustomer))
	for id, raw := range perCustomer {
		recency := int(reference.Sub(raw.lastOrder).Hours() / 24)
		if recency < 0 {
			recency = 0
		}
		customers = append(customers, models.CustomerRFM{
			CustomerID:  id,
			RecencyDays: recency,
			Frequency:   raw.frequency,
			Monetary:    raw.monetary,
		})
	}

	recencies := make([]float64, len(customers))
	frequencies := make([]float64, len(customers))
	monetaries := make([]float64, len(customers))
	for i, c := range customers {
		recencies[i] = float64(c.RecencyDays)
		frequencies[i] = float64(c.Frequency)
		monetaries[i] = float64(c.Monetary)
	}
	recencyCuts := quintileCuts(recencies)
	frequencyCuts := quintileCuts(frequencies)
	monetaryCuts := quintileCuts(monetaries)

	for i := range customers {
		c := &customers[i]
		// Lower recency is better, so the ascending bucket is inverted.
		c.RScore = 6 - bucketOf(float64(c.RecencyDays), recencyCuts, false)
		c.FScore = bucketOf(float64(c.Frequency), frequencyCuts, true)
		c.MScore = bucketOf(c.Monetary, monetaryCuts, true)
		c.Segment = classifySegment(c.RScore, c.FScore, c.MScore)
	}

	slices.SortFunc(customers, func(a, b models.CustomerRFM) int {
		if a.Monetary != b.Monetary {
			if a.Monetary > b.Monetary {
				return -1
			}
			return 1
		}
		return strings.Compare(a.CustomerID, b.CustomerID)
	})

	return models.RFMResult{
		Customers:     customers,
		Segments:      summarizeSegments(customers),
		ReferenceDate: reference,
	}
}

// quintileCuts returns the 20/40/60/80 percentile cut points of the
// population, linearly interpolated.
func quintileCuts(values []float64) [4]float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var cuts [4]float64
	for i := 0; i < 4; i++ {
		cuts[i] = quantile(sorted, float64(i+1)/5)
	}
	return cuts
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// bucketOf places a value into its ascending quintile bucket (1–5).
// Inclusive buckets count cuts the value reaches; exclusive buckets count
// only cuts it passes, so equal values can never straddle a boundary.
func bucketOf(v float64, cuts [4]float64, inclusive bool) int {
	bucket := 1
	for _, cut := range cuts {
		if inclusive && v >= cut || !inclusive && v > cut {
			bucket++
		}
	}
	return bucket
}

// segmentOrder fixes the display order of segment summaries.
var segmentOrder = []string{SegmentChampions, SegmentPromising, SegmentAtRisk, SegmentLost, SegmentStandard}

func summarizeSegments(customers []models.CustomerRFM) []models.SegmentSummary {
	bySegment := make(map[string]*models.SegmentSummary)
	for _, c := range customers {
		s := bySegment[c.Segment]
		if s == nil {
			s = &models.SegmentSummary{Segment: c.Segment}
			bySegment[c.Segment] = s
		}
		s.Customers++
		s.AvgMonetary += c.Monetary
		s.AvgRecency += float64(c.RecencyDays)
	}

	summaries := make([]models.SegmentSummary, 0, len(bySegment))
	for _, name := range segmentOrder {
		s, ok := bySegment[name]
		if !ok {
			continue
		}
		s.AvgMonetary /= float64(s.Customers)
		s.AvgRecency /= float64(s.Customers)
		summaries = append(summaries, *s)
	}
	return summaries
}
