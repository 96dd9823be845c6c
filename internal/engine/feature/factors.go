// internal/engine/feature/factors.go
package feature

import (
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

const dateKeyFormat = "2006-01-02"

// FactorTable is the pivoted view of external factor records: one column per
// (category, name) pair, one row per date, absent cells read as 0.
type FactorTable struct {
	Columns []string
	byDate  map[string]map[string]float64
}

// MergeFactors pivots external factor records into per-date columns. Column
// names are prefixed with the factor category ("weather_temperature",
// "holiday_christmas"). Duplicate (date, name) pairs within a category are
// averaged. Empty input yields an empty table, which callers treat as "no
// external signal" rather than an error.
func MergeFactors(records []domain.ExternalFactorRecord) *FactorTable {
	t := &FactorTable{byDate: make(map[string]map[string]float64)}
	if len(records) == 0 {
		return t
	}

	type cell struct {
		sum   float64
		count int
	}
	cells := make(map[string]map[string]*cell)
	columns := make(map[string]struct{})

	for _, rec := range records {
		col := rec.Category + "_" + rec.Name
		columns[col] = struct{}{}

		key := rec.Date.Format(dateKeyFormat)
		if cells[key] == nil {
			cells[key] = make(map[string]*cell)
		}
		if cells[key][col] == nil {
			cells[key][col] = &cell{}
		}
		cells[key][col].sum += rec.ImpactLevel
		cells[key][col].count++
	}

	t.Columns = make([]string, 0, len(columns))
	for col := range columns {
		t.Columns = append(t.Columns, col)
	}
	sort.Strings(t.Columns)

	for key, row := range cells {
		values := make(map[string]float64, len(t.Columns))
		for col, c := range row {
			values[col] = c.sum / float64(c.count)
		}
		t.byDate[key] = values
	}

	return t
}

// Empty reports whether the table carries no factor columns.
func (t *FactorTable) Empty() bool {
	return t == nil || len(t.Columns) == 0
}

// Value returns the factor value for a date and column, 0 when absent.
func (t *FactorTable) Value(date time.Time, column string) float64 {
	if t == nil {
		return 0
	}
	row, ok := t.byDate[date.Format(dateKeyFormat)]
	if !ok {
		return 0
	}
	return row[column]
}

// Row returns all factor values for a date in column order, zero-filled.
func (t *FactorTable) Row(date time.Time) []float64 {
	values := make([]float64, len(t.Columns))
	if t == nil {
		return values
	}
	row, ok := t.byDate[date.Format(dateKeyFormat)]
	if !ok {
		return values
	}
	for i, col := range t.Columns {
		values[i] = row[col]
	}
	return values
}

// Dates returns the distinct dates present in the table, sorted ascending.
func (t *FactorTable) Dates() []time.Time {
	if t == nil {
		return nil
	}
	dates := make([]time.Time, 0, len(t.byDate))
	for key := range t.byDate {
		d, err := time.Parse(dateKeyFormat, key)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
