package services

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"nexus-analytics/internal/models"
)

const productsPerCategory = 4

// defaultCategories is used when the caller supplies no category list.
var defaultCategories = []string{"Electronics", "Office", "Accessories"}

// Generate produces a synthetic transaction dataset covering every day in
// [p.Start, p.End]. The daily order volume follows a seasonal sine curve on
// top of the base rate, boosted on weekends; per order the category is a
// weighted draw, the unit price carries ±15% multiplicative noise and the
// quantity is 1–5. The same seed always yields an identical dataset.
func Generate(p models.GeneratorParams) models.Dataset {
	if p.End.Before(p.Start) {
		return models.NewDataset(nil)
	}
	if len(p.Categories) == 0 {
		p.Categories = defaultCategories
	}
	if p.BaseDailyOrders <= 0 {
		p.BaseDailyOrders = 20
	}
	if p.Customers <= 0 {
		p.Customers = 80
	}

	rng := rand.New(rand.NewSource(p.Seed))
	catalog := buildCatalog(rng, p.Categories)

	start := dateOnly(p.Start)
	end := dateOnly(p.End)

	var records []models.Record
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		orders := ordersForDay(day, p)
		for i := 0; i < orders; i++ {
			category := weightedCategory(rng, p.Categories)
			product := catalog[category][rng.Intn(len(catalog[category]))]
			quantity := 1 + rng.Intn(5)

			// Simulates discounts and surcharges around the list price.
			unitPrice := product.basePrice * (0.85 + rng.Float64()*0.30)

			records = append(records, models.Record{
				OrderDate:  day,
				CustomerID: fmt.Sprintf("CUST-%04d", 1000+rng.Intn(p.Customers)),
				Category:   category,
				ProductID:  product.id,
				Quantity:   quantity,
				TotalSales: roundCents(float64(quantity) * unitPrice),
			})
		}
	}

	return models.NewDataset(records)
}

func ordersForDay(day time.Time, p models.GeneratorParams) int {
	yearFrac := float64(day.YearDay()) / 365.0
	seasonal := 1 + p.SeasonalAmplitude*math.Sin(yearFrac*2*math.Pi)

	multiplier := 1.0
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		multiplier += p.WeekendBoost
	}

	n := int(math.Round(float64(p.BaseDailyOrders) * seasonal * multiplier))
	if n < 0 {
		return 0
	}
	return n
}

type product struct {
	id        string
	basePrice float64
}

// buildCatalog derives a fixed product list per category. Prices come from
// the shared rng so the whole catalog is reproducible from the seed.
func buildCatalog(rng *rand.Rand, categories []string) map[string][]product {
	catalog := make(map[string][]product, len(categories))
	for _, cat := range categories {
		prefix := productPrefix(cat)
		items := make([]product, 0, productsPerCategory)
		for n := 1; n <= productsPerCategory; n++ {
			items = append(items, product{
				id:        fmt.Sprintf("%s-P%02d", prefix, n),
				basePrice: 15 + rng.Float64()*335,
			})
		}
		catalog[cat] = items
	}
	return catalog
}

func productPrefix(category string) string {
	cleaned := strings.ToUpper(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, category))
	if len(cleaned) > 3 {
		cleaned = cleaned[:3]
	}
	if cleaned == "" {
		cleaned = "GEN"
	}
	return cleaned
}

// weightedCategory draws a category with earlier entries weighted heavier,
// so the first category in the list dominates revenue the way a real
// catalog skews.
func weightedCategory(rng *rand.Rand, categories []string) string {
	total := 0
	for i := range categories {
		total += len(categories) - i
	}
	pick := rng.Intn(total)
	for i, cat := range categories {
		pick -= len(categories) - i
		if pick < 0 {
			return cat
		}
	}
	return categories[len(categories)-1]
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
