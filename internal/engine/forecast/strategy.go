// internal/engine/forecast/strategy.go
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/engine/feature"
)

// Strategy names accepted by New.
const (
	StrategySeasonal = "seasonal"
	StrategyForest   = "forest"
	StrategyNeural   = "neural"
)

var (
	// ErrInsufficientData means the sales history is empty or too short for
	// the chosen strategy. Surfaced to callers as "cannot forecast yet".
	ErrInsufficientData = errors.New("insufficient sales history to train")

	// ErrNotTrained means Predict was called before Train. This is a
	// programmer error, not a data condition.
	ErrNotTrained = errors.New("model must be trained before making predictions")

	// ErrInvalidHorizon means Predict was asked for fewer than one day.
	ErrInvalidHorizon = errors.New("forecast horizon must be at least 1 day")
)

// Strategy is the train/predict contract every forecasting model satisfies.
// A strategy instance trains at most once; retraining means constructing a
// new instance. Instances are not safe for concurrent use and must not be
// shared across products.
type Strategy interface {
	// Train fits the model on the feature table and returns in-sample
	// error metrics.
	Train(table *feature.Table) (*domain.TrainingMetrics, error)

	// Predict produces exactly horizon forecast points for consecutive
	// calendar days starting the day after the latest training date.
	// Future external factors, when supplied, feed the factor columns the
	// model was trained with.
	Predict(horizon int, future *feature.FactorTable) ([]domain.ForecastPoint, error)

	// IsTrained reports whether Train has completed.
	IsTrained() bool
}

// New constructs a fresh, untrained strategy by name.
func New(name string, cfg config.EngineConfig) (Strategy, error) {
	switch name {
	case StrategySeasonal:
		return newSeasonal(), nil
	case StrategyForest:
		return newForest(cfg.Forest), nil
	case StrategyNeural:
		return newNeural(cfg.Neural), nil
	default:
		return nil, fmt.Errorf("unknown forecasting strategy %q", name)
	}
}

// clampForecast enforces the post-processing invariant: demand cannot be
// negative, so negative predictions and lower bounds clamp to 0, and the
// upper bound never drops below the lower.
func clampForecast(points []domain.ForecastPoint) []domain.ForecastPoint {
	for i := range points {
		if points[i].PredictedDemand < 0 {
			points[i].PredictedDemand = 0
		}
		if points[i].ConfidenceLower < 0 {
			points[i].ConfidenceLower = 0
		}
		if points[i].ConfidenceUpper < points[i].ConfidenceLower {
			points[i].ConfidenceUpper = points[i].ConfidenceLower
		}
	}
	return points
}

// errorMetrics computes MSE and MAE between actual and predicted values.
func errorMetrics(actual, predicted []float64) (mse, mae float64) {
	n := len(actual)
	if n == 0 || len(predicted) != n {
		return 0, 0
	}
	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		mse += diff * diff
		if diff < 0 {
			diff = -diff
		}
		mae += diff
	}
	return mse / float64(n), mae / float64(n)
}

// weekday maps a date to the 0=Monday..6=Sunday convention the feature table
// uses.
func weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// chronoSplit splits rows into train and test partitions without shuffling,
// keeping the last testFraction of rows for evaluation.
func chronoSplit(n int, testFraction float64) (trainEnd int) {
	trainEnd = n - int(float64(n)*testFraction)
	if trainEnd < 1 {
		trainEnd = 1
	}
	if trainEnd > n {
		trainEnd = n
	}
	return trainEnd
}
