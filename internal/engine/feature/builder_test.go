package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// salesSeq builds one record per consecutive day starting at start.
func salesSeq(start time.Time, quantities ...int) []domain.SalesRecord {
	records := make([]domain.SalesRecord, len(quantities))
	for i, q := range quantities {
		records[i] = domain.SalesRecord{Date: start.AddDate(0, 0, i), Quantity: q}
	}
	return records
}

func TestBuildReindexesGapsToZero(t *testing.T) {
	sales := []domain.SalesRecord{
		{Date: day(2024, 1, 1), Quantity: 5},
		{Date: day(2024, 1, 4), Quantity: 2},
	}

	table := Build(sales, nil)

	require.Equal(t, 4, table.Len())
	assert.Equal(t, day(2024, 1, 1), table.Rows[0].Date)
	assert.Equal(t, day(2024, 1, 4), table.Rows[3].Date)
	assert.Equal(t, []float64{5, 0, 0, 2}, table.Targets())
}

func TestBuildAggregatesSameDaySales(t *testing.T) {
	sales := []domain.SalesRecord{
		{Date: day(2024, 1, 1), Quantity: 3, Channel: "store"},
		{Date: time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC), Quantity: 4, Channel: "online"},
	}

	table := Build(sales, nil)

	require.Equal(t, 1, table.Len())
	assert.Equal(t, 7.0, table.Rows[0].Quantity)
}

func TestBuildCalendarFeatures(t *testing.T) {
	// 2024-01-01 is a Monday.
	table := Build(salesSeq(day(2024, 1, 1), 1, 1, 1, 1, 1, 1, 1), nil)
	require.Equal(t, 7, table.Len())

	monday := table.Rows[0]
	assert.Equal(t, 0, monday.DayOfWeek)
	assert.Equal(t, 1, monday.Month)
	assert.Equal(t, 2024, monday.Year)
	assert.Equal(t, 0, monday.IsWeekend)

	saturday := table.Rows[5]
	assert.Equal(t, 5, saturday.DayOfWeek)
	assert.Equal(t, 1, saturday.IsWeekend)

	sunday := table.Rows[6]
	assert.Equal(t, 6, sunday.DayOfWeek)
	assert.Equal(t, 1, sunday.IsWeekend)
}

func TestBuildLagFeatures(t *testing.T) {
	table := Build(salesSeq(day(2024, 1, 1), 1, 2, 3, 4, 5, 6, 7, 8, 9, 10), nil)

	// Lags fill with 0 until enough history exists.
	assert.Equal(t, []float64{0, 0, 0, 0}, table.Rows[0].Lags)
	assert.Equal(t, []float64{1, 0, 0, 0}, table.Rows[1].Lags)

	// Day 8 sees yesterday's quantity and the value a week back.
	assert.Equal(t, []float64{7, 1, 0, 0}, table.Rows[7].Lags)
}

func TestBuildRollingFeatures(t *testing.T) {
	table := Build(salesSeq(day(2024, 1, 1), 1, 2, 3, 4, 5, 6, 7, 8), nil)

	// Window not yet full: both stats are 0.
	assert.Equal(t, 0.0, table.Rows[5].RollingMean[0])
	assert.Equal(t, 0.0, table.Rows[5].RollingStd[0])

	// First full 7-day window covers quantities 1..7.
	assert.InDelta(t, 4.0, table.Rows[6].RollingMean[0], 1e-12)
	assert.InDelta(t, 2.160246899469287, table.Rows[6].RollingStd[0], 1e-9)

	// Second window covers 2..8.
	assert.InDelta(t, 5.0, table.Rows[7].RollingMean[0], 1e-12)
}

func TestBuildEmptySales(t *testing.T) {
	table := Build(nil, nil)

	assert.Equal(t, 0, table.Len())
	assert.True(t, table.LastDate().IsZero())
}

func TestBuildWithFactors(t *testing.T) {
	factors := MergeFactors([]domain.ExternalFactorRecord{
		{Date: day(2024, 1, 2), Category: domain.FactorWeather, Name: "rain", ImpactLevel: 0.7},
	})

	table := Build(salesSeq(day(2024, 1, 1), 5, 5, 5), factors)

	require.Equal(t, []string{"weather_rain"}, table.FactorColumns)
	assert.Equal(t, []float64{0}, table.Rows[0].FactorValues)
	assert.Equal(t, []float64{0.7}, table.Rows[1].FactorValues)
	assert.Equal(t, []float64{0}, table.Rows[2].FactorValues)
}

func TestFeatureNamesMatchVectorOrder(t *testing.T) {
	factors := MergeFactors([]domain.ExternalFactorRecord{
		{Date: day(2024, 1, 1), Category: domain.FactorHoliday, Name: "nyd", ImpactLevel: 1},
	})
	table := Build(salesSeq(day(2024, 1, 1), 1, 2, 3), factors)

	names := table.FeatureNames()
	assert.Equal(t, []string{
		"dayofweek", "month", "year", "is_weekend",
		"lag_1", "lag_7", "lag_14", "lag_28",
		"rolling_mean_7", "rolling_std_7",
		"rolling_mean_14", "rolling_std_14",
		"rolling_mean_30", "rolling_std_30",
		"holiday_nyd",
	}, names)

	for i := 0; i < table.Len(); i++ {
		assert.Len(t, table.Vector(i), len(names))
	}
}

func TestCalendarRowZeroesHistoryFeatures(t *testing.T) {
	factors := MergeFactors([]domain.ExternalFactorRecord{
		{Date: day(2024, 1, 6), Category: domain.FactorWeather, Name: "snow", ImpactLevel: -0.5},
	})

	row := CalendarRow(day(2024, 1, 6), []string{"weather_snow"}, factors)

	assert.Equal(t, 5, row.DayOfWeek) // Saturday
	assert.Equal(t, 1, row.IsWeekend)
	assert.Equal(t, []float64{0, 0, 0, 0}, row.Lags)
	assert.Equal(t, []float64{0, 0, 0}, row.RollingMean)
	assert.Equal(t, []float64{0, 0, 0}, row.RollingStd)
	assert.Equal(t, []float64{-0.5}, row.FactorValues)
}
