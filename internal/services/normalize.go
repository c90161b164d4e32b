package services

import (
	"strconv"
	"strings"
	"time"

	"nexus-analytics/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	parseBatchSize  = 2000
	maxParseWorkers = 8
)

// canonicalColumns maps the normalized header form to the canonical name
// reported in SchemaError.
var canonicalColumns = map[string]string{
	"orderdate":  "OrderDate",
	"customerid": "CustomerID",
	"category":   "Category",
	"productid":  "ProductID",
	"quantity":   "Quantity",
	"totalsales": "TotalSales",
}

// dateLayouts are tried in order; day-first slash dates match the upload
// format the original dashboards accepted.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006/01/02",
	"02-01-2006",
}

// SchemaError reports required columns that are entirely absent from the
// input header. It is fatal to the normalization call.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Normalize validates an arbitrary tabular input against the canonical
// schema. Header matching is case-insensitive and ignores separator
// characters. Rows with an unparsable date, an empty customer id or a
// negative quantity/sales are dropped and counted; an empty quantity
// defaults to 1 and empty sales to 0.
func Normalize(header []string, rows [][]string) (models.Dataset, int, error) {
	cols, err := mapColumns(header)
	if err != nil {
		return models.Dataset{}, 0, err
	}

	// Index-addressed batches keep insertion order while parsing in
	// parallel, the same shape as the CSV batch pipeline used for file
	// loads.
	parsed := make([]parsedRow, len(rows))
	var g errgroup.Group
	g.SetLimit(maxParseWorkers)

	for start := 0; start < len(rows); start += parseBatchSize {
		end := min(start+parseBatchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				parsed[i] = parseRow(rows[i], cols)
			}
			return nil
		})
	}
	g.Wait()

	records := make([]models.Record, 0, len(rows))
	dropped := 0
	for _, p := range parsed {
		if !p.valid {
			dropped++
			continue
		}
		records = append(records, p.record)
	}

	return models.NewDataset(records), dropped, nil
}

type columnIndexes struct {
	orderDate  int
	customerID int
	category   int
	productID  int
	quantity   int
	totalSales int
}

func mapColumns(header []string) (columnIndexes, error) {
	found := make(map[string]int, len(canonicalColumns))
	for i, h := range header {
		key := normalizeColumnName(h)
		if _, required := canonicalColumns[key]; required {
			if _, dup := found[key]; !dup {
				found[key] = i
			}
		}
	}

	var missing []string
	for _, key := range []string{"orderdate", "customerid", "category", "productid", "quantity", "totalsales"} {
		if _, ok := found[key]; !ok {
			missing = append(missing, canonicalColumns[key])
		}
	}
	if len(missing) > 0 {
		return columnIndexes{}, &SchemaError{Missing: missing}
	}

	return columnIndexes{
		orderDate:  found["orderdate"],
		customerID: found["customerid"],
		category:   found["category"],
		productID:  found["productid"],
		quantity:   found["quantity"],
		totalSales: found["totalsales"],
	}, nil
}

// normalizeColumnName lowercases a header and strips separator characters,
// so "Order Date", "order_date" and "OrderDate" all match.
func normalizeColumnName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

type parsedRow struct {
	record models.Record
	valid  bool
}

func parseRow(row []string, cols columnIndexes) parsedRow {
	date, ok := parseDate(field(row, cols.orderDate))
	if !ok {
		return parsedRow{}
	}

	customer := field(row, cols.customerID)
	if customer == "" {
		return parsedRow{}
	}

	quantity, ok := parseQuantity(field(row, cols.quantity))
	if !ok || quantity < 0 {
		return parsedRow{}
	}

	sales, ok := parseAmount(field(row, cols.totalSales))
	if !ok || sales < 0 {
		return parsedRow{}
	}

	return parsedRow{
		record: models.Record{
			OrderDate:  date,
			CustomerID: customer,
			Category:   field(row, cols.category),
			ProductID:  field(row, cols.productID),
			Quantity:   quantity,
			TotalSales: sales,
		},
		valid: true,
	}
}

func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// parseQuantity defaults an empty value to 1.
func parseQuantity(s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	s = stripCurrency(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// parseAmount defaults an empty value to 0 and tolerates $ and thousands
// separators.
func parseAmount(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(stripCurrency(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func stripCurrency(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '$' || r == ',' {
			return -1
		}
		return r
	}, s)
}
