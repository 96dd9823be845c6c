// internal/engine/feature/builder.go
package feature

import (
	"math"
	"strconv"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

var (
	lagOffsets     = []int{1, 7, 14, 28}
	rollingWindows = []int{7, 14, 30}
)

// Row is one calendar day of the engineered feature table.
type Row struct {
	Date      time.Time
	Quantity  float64 // target
	DayOfWeek int     // 0 = Monday .. 6 = Sunday
	Month     int
	Year      int
	IsWeekend int

	Lags         []float64 // aligned with lagOffsets
	RollingMean  []float64 // aligned with rollingWindows
	RollingStd   []float64 // aligned with rollingWindows
	FactorValues []float64 // aligned with Table.FactorColumns
}

// Table is a contiguous daily feature table. Rows span min..max observed date
// with no gaps; days without sales carry quantity 0.
type Table struct {
	Rows          []Row
	FactorColumns []string
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// LastDate returns the date of the final row; the zero time for empty tables.
func (t *Table) LastDate() time.Time {
	if t.Len() == 0 {
		return time.Time{}
	}
	return t.Rows[len(t.Rows)-1].Date
}

// FeatureNames returns the model feature columns in vector order. The target
// quantity and the date are not features.
func (t *Table) FeatureNames() []string {
	names := []string{"dayofweek", "month", "year", "is_weekend"}
	for _, lag := range lagOffsets {
		names = append(names, "lag_"+strconv.Itoa(lag))
	}
	for _, w := range rollingWindows {
		names = append(names, "rolling_mean_"+strconv.Itoa(w), "rolling_std_"+strconv.Itoa(w))
	}
	names = append(names, t.FactorColumns...)
	return names
}

// Vector flattens a row into the feature order given by FeatureNames.
func (t *Table) Vector(i int) []float64 {
	r := t.Rows[i]
	v := make([]float64, 0, 4+len(r.Lags)+2*len(r.RollingMean)+len(r.FactorValues))
	v = append(v, float64(r.DayOfWeek), float64(r.Month), float64(r.Year), float64(r.IsWeekend))
	v = append(v, r.Lags...)
	for j := range r.RollingMean {
		v = append(v, r.RollingMean[j], r.RollingStd[j])
	}
	v = append(v, r.FactorValues...)
	return v
}

// Targets returns the quantity column.
func (t *Table) Targets() []float64 {
	y := make([]float64, t.Len())
	for i, r := range t.Rows {
		y[i] = r.Quantity
	}
	return y
}

// Build turns raw sales records and optional pivoted external factors into
// the feature table. Sales are aggregated to one total per day, the calendar
// is reindexed so every day between the first and last observed date is
// present, and missing days get quantity 0: the absence of a sales record
// means zero demand, not missing data. Lag and rolling values that are not
// yet satisfiable fill to 0 instead of propagating as undefined.
//
// Empty sales input yields an empty table; downstream stages treat that as
// insufficient data.
func Build(sales []domain.SalesRecord, factors *FactorTable) *Table {
	t := &Table{}
	if factors != nil {
		t.FactorColumns = factors.Columns
	}
	if len(sales) == 0 {
		return t
	}

	// Aggregate to one quantity per calendar day.
	daily := make(map[string]float64)
	var minDate, maxDate time.Time
	for _, s := range sales {
		day := truncateDay(s.Date)
		daily[day.Format(dateKeyFormat)] += float64(s.Quantity)
		if minDate.IsZero() || day.Before(minDate) {
			minDate = day
		}
		if maxDate.IsZero() || day.After(maxDate) {
			maxDate = day
		}
	}

	// Reindex to a contiguous daily calendar.
	days := int(maxDate.Sub(minDate).Hours()/24) + 1
	quantities := make([]float64, days)
	dates := make([]time.Time, days)
	for i := 0; i < days; i++ {
		d := minDate.AddDate(0, 0, i)
		dates[i] = d
		quantities[i] = daily[d.Format(dateKeyFormat)]
	}

	t.Rows = make([]Row, days)
	for i := 0; i < days; i++ {
		d := dates[i]
		row := Row{
			Date:      d,
			Quantity:  quantities[i],
			DayOfWeek: mondayWeekday(d),
			Month:     int(d.Month()),
			Year:      d.Year(),
		}
		if row.DayOfWeek >= 5 {
			row.IsWeekend = 1
		}

		row.Lags = make([]float64, len(lagOffsets))
		for j, lag := range lagOffsets {
			if i >= lag {
				row.Lags[j] = quantities[i-lag]
			}
		}

		row.RollingMean = make([]float64, len(rollingWindows))
		row.RollingStd = make([]float64, len(rollingWindows))
		for j, window := range rollingWindows {
			if i+1 >= window {
				mean, std := meanStd(quantities[i+1-window : i+1])
				row.RollingMean[j] = mean
				row.RollingStd[j] = std
			}
		}

		if factors != nil && !factors.Empty() {
			row.FactorValues = factors.Row(d)
		} else {
			row.FactorValues = make([]float64, len(t.FactorColumns))
		}

		t.Rows[i] = row
	}

	return t
}

// CalendarRow builds a future feature row for prediction: calendar features
// and external factor values are real, lag and rolling columns are 0 because
// future demand is unknown at prediction time.
func CalendarRow(date time.Time, factorColumns []string, factors *FactorTable) Row {
	d := truncateDay(date)
	row := Row{
		Date:        d,
		DayOfWeek:   mondayWeekday(d),
		Month:       int(d.Month()),
		Year:        d.Year(),
		Lags:        make([]float64, len(lagOffsets)),
		RollingMean: make([]float64, len(rollingWindows)),
		RollingStd:  make([]float64, len(rollingWindows)),
	}
	if row.DayOfWeek >= 5 {
		row.IsWeekend = 1
	}

	row.FactorValues = make([]float64, len(factorColumns))
	if factors != nil && !factors.Empty() {
		for i, col := range factorColumns {
			row.FactorValues[i] = factors.Value(d, col)
		}
	}

	return row
}

// mondayWeekday maps time.Weekday to the 0=Monday..6=Sunday convention the
// feature table uses.
func mondayWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func truncateDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// meanStd computes the mean and sample standard deviation of values. A
// single-element window has standard deviation 0.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(ss / float64(len(values)-1))
}
