// internal/engine/forecast/seasonal.go
package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/engine/feature"
)

// seasonLength is the weekly cycle the decomposition extracts. Daily retail
// demand is dominated by day-of-week effects.
const seasonLength = 7

// seasonal decomposes the series into linear trend + weekly seasonality and
// extrapolates both. It only needs the date/quantity columns, so it works on
// short histories where the feature-driven strategies cannot, and it ignores
// external factor columns. Its interval comes from the spread of in-sample
// residuals, which is the model's native uncertainty estimate.
type seasonal struct {
	trained  bool
	lastDate time.Time
	slope    float64
	level    float64
	indices  [seasonLength]float64
	residStd float64
	points   int
}

func newSeasonal() *seasonal {
	return &seasonal{}
}

func (s *seasonal) IsTrained() bool { return s.trained }

func (s *seasonal) Train(table *feature.Table) (*domain.TrainingMetrics, error) {
	// Two full weekly cycles are the minimum to tell trend from seasonality.
	if table.Len() < 2*seasonLength {
		return nil, ErrInsufficientData
	}

	y := table.Targets()
	n := len(y)

	trend := centeredMovingAverage(y, seasonLength)

	// Seasonal index per weekday from the detrended series, normalized so the
	// indices sum to zero.
	var sums [seasonLength]float64
	var counts [seasonLength]int
	for i := range y {
		dow := table.Rows[i].DayOfWeek
		sums[dow] += y[i] - trend[i]
		counts[dow]++
	}
	var indexMean float64
	for d := 0; d < seasonLength; d++ {
		if counts[d] > 0 {
			s.indices[d] = sums[d] / float64(counts[d])
		}
		indexMean += s.indices[d]
	}
	indexMean /= seasonLength
	for d := 0; d < seasonLength; d++ {
		s.indices[d] -= indexMean
	}

	// Fit a straight line through the deseasonalized series.
	deseason := make([]float64, n)
	for i := range y {
		deseason[i] = y[i] - s.indices[table.Rows[i].DayOfWeek]
	}
	s.level, s.slope = linearFit(deseason)

	fitted := make([]float64, n)
	var ss float64
	for i := range y {
		fitted[i] = s.level + s.slope*float64(i) + s.indices[table.Rows[i].DayOfWeek]
		resid := y[i] - fitted[i]
		ss += resid * resid
	}
	s.residStd = math.Sqrt(ss / float64(n))

	s.lastDate = table.LastDate()
	s.points = n
	s.trained = true

	mse, mae := errorMetrics(y, fitted)
	return &domain.TrainingMetrics{
		Strategy:           StrategySeasonal,
		MSE:                mse,
		MAE:                mae,
		TrainingDataPoints: n,
	}, nil
}

func (s *seasonal) Predict(horizon int, _ *feature.FactorTable) ([]domain.ForecastPoint, error) {
	if !s.trained {
		return nil, ErrNotTrained
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}

	points := make([]domain.ForecastPoint, horizon)
	for k := 1; k <= horizon; k++ {
		date := s.lastDate.AddDate(0, 0, k)
		t := float64(s.points - 1 + k)
		dow := weekday(date)

		yhat := s.level + s.slope*t + s.indices[dow]
		margin := 1.96 * s.residStd

		points[k-1] = domain.ForecastPoint{
			Date:            date,
			PredictedDemand: yhat,
			ConfidenceLower: yhat - margin,
			ConfidenceUpper: yhat + margin,
		}
	}

	return clampForecast(points), nil
}

// centeredMovingAverage smooths the series with a centered window; edge
// positions fall back to the nearest full-window value so the trend covers
// the whole series.
func centeredMovingAverage(y []float64, window int) []float64 {
	n := len(y)
	trend := make([]float64, n)
	half := window / 2

	first, last := -1, -1
	for i := half; i < n-half; i++ {
		var sum float64
		for j := i - half; j <= i+half; j++ {
			sum += y[j]
		}
		trend[i] = sum / float64(2*half+1)
		if first < 0 {
			first = i
		}
		last = i
	}

	if first < 0 {
		// series shorter than the window, flat trend at the series mean
		var sum float64
		for _, v := range y {
			sum += v
		}
		mean := sum / float64(n)
		for i := range trend {
			trend[i] = mean
		}
		return trend
	}

	for i := 0; i < first; i++ {
		trend[i] = trend[first]
	}
	for i := last + 1; i < n; i++ {
		trend[i] = trend[last]
	}
	return trend
}

// linearFit returns the intercept and slope of the least-squares line through
// values indexed 0..n-1.
func linearFit(values []float64) (intercept, slope float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}

	var sumT, sumY, sumTY, sumTT float64
	for i, v := range values {
		t := float64(i)
		sumT += t
		sumY += v
		sumTY += t * v
		sumTT += t * t
	}

	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		return sumY / n, 0
	}
	slope = (n*sumTY - sumT*sumY) / denom
	intercept = (sumY - slope*sumT) / n
	return intercept, slope
}
