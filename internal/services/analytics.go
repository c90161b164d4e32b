package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"nexus-analytics/internal/models"
	"github.com/cespare/xxhash/v2"
)

const defaultRowCap = 500000

// Analytics owns the current in-memory dataset snapshot and memoizes
// analysis results on top of the pure engine functions. The snapshot is
// replaced wholesale on upload or regeneration, never mutated in place,
// and the memo cache is reset on every replace so results from unrelated
// datasets can never leak.
type Analytics struct {
	mu          sync.RWMutex
	dataset     models.Dataset
	fingerprint uint64
	dropped     int
	source      string
	loadedAt    time.Time

	memoMu sync.Mutex
	memo   map[string]any

	rowCap int
	logger *slog.Logger
}

func NewAnalytics(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		memo:   make(map[string]any),
		rowCap: defaultRowCap,
		logger: logger,
	}
}

// SetRowCap bounds how many CSV rows a single load will accept.
func (a *Analytics) SetRowCap(n int) {
	if n > 0 {
		a.rowCap = n
	}
}

// SetData replaces the current snapshot. The record slice is copied so the
// caller cannot mutate the snapshot afterwards.
func (a *Analytics) SetData(ds models.Dataset, dropped int, source string) {
	records := make([]models.Record, len(ds.Records))
	copy(records, ds.Records)
	snapshot := models.Dataset{Records: records, MinDate: ds.MinDate, MaxDate: ds.MaxDate}
	fp := fingerprint(records)

	a.mu.Lock()
	a.dataset = snapshot
	a.fingerprint = fp
	a.dropped = dropped
	a.source = source
	a.loadedAt = time.Now()
	a.mu.Unlock()

	a.memoMu.Lock()
	a.memo = make(map[string]any)
	a.memoMu.Unlock()

	a.logger.Info("dataset replaced",
		"source", source,
		"records", len(records),
		"dropped_rows", dropped,
		"fingerprint", fmt.Sprintf("%016x", fp))
}

// Dataset returns the current snapshot. The records are treated as
// immutable by every consumer.
func (a *Analytics) Dataset() models.Dataset {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dataset
}

// GenerateDemo replaces the snapshot with a synthetic dataset and returns
// the record count.
func (a *Analytics) GenerateDemo(p models.GeneratorParams) int {
	ds := Generate(p)
	a.SetData(ds, 0, "generator")
	return len(ds.Records)
}

// LoadFromCSV streams a CSV file through the normalizer and replaces the
// snapshot. Rows beyond the configured cap are not read.
func (a *Analytics) LoadFromCSV(ctx context.Context, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	start := time.Now()
	header, rows, err := a.readCSV(ctx, bufio.NewReaderSize(file, 1<<20))
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	ds, dropped, err := Normalize(header, rows)
	if err != nil {
		return fmt.Errorf("normalize csv: %w", err)
	}
	if ds.Empty() {
		return fmt.Errorf("no valid records in %s (%d rows dropped)", filename, dropped)
	}
	a.SetData(ds, dropped, filename)

	a.logger.Info("csv load complete",
		"filename", filename,
		"records", len(ds.Records),
		"dropped_rows", dropped,
		"duration", time.Since(start))
	return nil
}

// LoadCSVBytes normalizes an uploaded CSV body and replaces the snapshot.
func (a *Analytics) LoadCSVBytes(data []byte) (kept, dropped int, err error) {
	header, rows, err := a.readCSV(context.Background(), bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	ds, dropped, err := Normalize(header, rows)
	if err != nil {
		return 0, 0, err
	}
	a.SetData(ds, dropped, "upload")
	return len(ds.Records), dropped, nil
}

func (a *Analytics) readCSV(ctx context.Context, r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("empty input")
	}

	var rows [][]string
	for {
		if len(rows)%10000 == 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			default:
			}
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed lines become dropped rows downstream, not faults.
			continue
		}
		rows = append(rows, row)
		if len(rows) >= a.rowCap {
			a.logger.Warn("row cap reached, truncating input", "cap", a.rowCap)
			break
		}
	}
	return header, rows, nil
}

// Query methods. Each computes over the current snapshot through the pure
// engine functions, memoized per analysis parameters.

func (a *Analytics) KPIs(r models.DateRange) models.KPISummary {
	return memoize(a, "kpis|"+rangeKey(r), func(ds models.Dataset) models.KPISummary {
		return Summarize(ds, r)
	})
}

func (a *Analytics) RevenueTrend(g models.Granularity, r models.DateRange) []models.PeriodAggregate {
	return memoize(a, "trend|"+string(g)+"|"+rangeKey(r), func(ds models.Dataset) []models.PeriodAggregate {
		return AggregateByPeriod(ds, g, r)
	})
}

func (a *Analytics) Heatmap(r models.DateRange) models.Heatmap {
	return memoize(a, "heatmap|"+rangeKey(r), func(ds models.Dataset) models.Heatmap {
		return RevenueHeatmap(ds, r)
	})
}

func (a *Analytics) Categories(r models.DateRange) []models.CategoryRevenue {
	return memoize(a, "categories|"+rangeKey(r), func(ds models.Dataset) []models.CategoryRevenue {
		return CategoryDistribution(ds, r)
	})
}

func (a *Analytics) Pareto(key models.GroupKey, r models.DateRange) models.ParetoResult {
	return memoize(a, "pareto|"+string(key)+"|"+rangeKey(r), func(ds models.Dataset) models.ParetoResult {
		return ParetoByKey(ds, key, r)
	})
}

func (a *Analytics) RFM(r models.DateRange) models.RFMResult {
	return memoize(a, "rfm|"+rangeKey(r), func(ds models.Dataset) models.RFMResult {
		return ComputeRFM(filterRecords(ds, r), time.Time{})
	})
}

func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return map[string]any{
		"record_count": len(a.dataset.Records),
		"dropped_rows": a.dropped,
		"source":       a.source,
		"loaded_at":    a.loadedAt,
		"min_date":     a.dataset.MinDate,
		"max_date":     a.dataset.MaxDate,
		"fingerprint":  fmt.Sprintf("%016x", a.fingerprint),
	}
}

func memoize[T any](a *Analytics, key string, compute func(models.Dataset) T) T {
	a.mu.RLock()
	ds := a.dataset
	key = fmt.Sprintf("%016x|%s", a.fingerprint, key)
	a.mu.RUnlock()

	a.memoMu.Lock()
	cached, ok := a.memo[key]
	a.memoMu.Unlock()
	if ok {
		return cached.(T)
	}

	result := compute(ds)

	a.memoMu.Lock()
	a.memo[key] = result
	a.memoMu.Unlock()
	return result
}

func rangeKey(r models.DateRange) string {
	return r.From.Format("20060102") + ":" + r.To.Format("20060102")
}

// fingerprint hashes the record contents so a snapshot is identified by
// exactly the data it holds.
func fingerprint(records []models.Record) uint64 {
	h := xxhash.New()
	for _, rec := range records {
		h.WriteString(rec.OrderDate.Format("20060102"))
		h.WriteString("|")
		h.WriteString(rec.CustomerID)
		h.WriteString("|")
		h.WriteString(rec.Category)
		h.WriteString("|")
		h.WriteString(rec.ProductID)
		h.WriteString("|")
		h.WriteString(strconv.Itoa(rec.Quantity))
		h.WriteString("|")
		h.WriteString(strconv.FormatFloat(rec.TotalSales, 'f', -1, 64))
		h.WriteString("\n")
	}
	return h.Sum64()
}
