package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/config"
)

func testNeuralConfig() config.NeuralConfig {
	return config.NeuralConfig{
		HiddenUnits:  []int{16, 8},
		DropoutRate:  0.1,
		LearningRate: 0.01,
		Epochs:       10,
		BatchSize:    16,
		Seed:         42,
	}
}

func TestNeuralRequiresThirtyDays(t *testing.T) {
	m := newNeural(testNeuralConfig())

	_, err := m.Train(buildTable(monday(), repeat([]int{5, 6, 7, 8, 9, 10, 11}, 4)[:20]...))
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.False(t, m.IsTrained())
}

func TestNeuralTrainAndPredict(t *testing.T) {
	table := buildTable(monday(), repeat([]int{8, 9, 10, 11, 12, 20, 15}, 10)...)

	m := newNeural(testNeuralConfig())
	metrics, err := m.Train(table)
	require.NoError(t, err)
	require.True(t, m.IsTrained())

	assert.Equal(t, StrategyNeural, metrics.Strategy)
	assert.False(t, math.IsNaN(metrics.MSE))
	assert.False(t, math.IsNaN(metrics.MAE))

	points, err := m.Predict(10, nil)
	require.NoError(t, err)
	assertForecastShape(t, points, table.LastDate(), 10)

	for _, p := range points {
		assert.False(t, math.IsNaN(p.PredictedDemand))
		assert.False(t, math.IsInf(p.PredictedDemand, 0))
	}
}

func TestNeuralIntervalIsFractionOfPrediction(t *testing.T) {
	table := buildTable(monday(), repeat([]int{10, 10, 10, 10, 10, 10, 10}, 10)...)

	m := newNeural(testNeuralConfig())
	_, err := m.Train(table)
	require.NoError(t, err)

	points, err := m.Predict(5, nil)
	require.NoError(t, err)

	// The interval half-width is a fixed fraction of the point prediction,
	// so upper - predicted tracks 1.96 * 0.2 * predicted wherever nothing
	// was clamped.
	for _, p := range points {
		if p.ConfidenceLower == 0 {
			continue
		}
		margin := 1.96 * neuralUncertaintyFraction * p.PredictedDemand
		assert.InDelta(t, margin, p.ConfidenceUpper-p.PredictedDemand, 1e-9)
		assert.InDelta(t, margin, p.PredictedDemand-p.ConfidenceLower, 1e-9)
	}
}

func TestNeuralConfigDefaults(t *testing.T) {
	m := newNeural(config.NeuralConfig{})

	assert.Equal(t, []int{64, 32}, m.cfg.HiddenUnits)
	assert.Equal(t, 0.001, m.cfg.LearningRate)
	assert.Equal(t, 50, m.cfg.Epochs)
	assert.Equal(t, 32, m.cfg.BatchSize)
}

func TestNeuralPredictBeforeTrain(t *testing.T) {
	_, err := newNeural(testNeuralConfig()).Predict(7, nil)
	assert.ErrorIs(t, err, ErrNotTrained)
}
