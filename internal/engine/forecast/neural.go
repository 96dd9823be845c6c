// internal/engine/forecast/neural.go
package forecast

import (
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/engine/feature"
)

// neural is a small feed-forward network (ReLU hidden layers with dropout,
// linear output) trained with Adam on mean squared error.
//
// Its confidence interval is NOT calibrated: it is a fixed fractional
// uncertainty of 20% of the point prediction, widened by 1.96. That
// approximation is carried forward deliberately; do not mistake it for a
// statistical interval.
type neural struct {
	cfg config.NeuralConfig

	trained       bool
	lastDate      time.Time
	scaler        standardScaler
	factorColumns []string
	layers        []*denseLayer
}

const neuralUncertaintyFraction = 0.2

func newNeural(cfg config.NeuralConfig) *neural {
	if len(cfg.HiddenUnits) == 0 {
		cfg.HiddenUnits = []int{64, 32}
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.001
	}
	if cfg.Epochs < 1 {
		cfg.Epochs = 50
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 32
	}
	return &neural{cfg: cfg}
}

func (m *neural) IsTrained() bool { return m.trained }

func (m *neural) Train(table *feature.Table) (*domain.TrainingMetrics, error) {
	n := table.Len()
	if n < minForestRows {
		return nil, ErrInsufficientData
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = table.Vector(i)
	}
	y := table.Targets()

	trainEnd := chronoSplit(n, 0.2)
	trainX := m.scaler.fitTransform(rows[:trainEnd])
	trainY := y[:trainEnd]
	testX := m.scaler.transform(rows[trainEnd:])
	testY := y[trainEnd:]

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	m.buildLayers(len(trainX[0]), rng)

	order := make([]int, len(trainX))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for start := 0; start < len(order); start += m.cfg.BatchSize {
			end := start + m.cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			for _, idx := range order[start:end] {
				m.step(trainX[idx], trainY[idx], rng)
			}
		}
	}

	m.factorColumns = table.FactorColumns
	m.lastDate = table.LastDate()
	m.trained = true

	predicted := make([]float64, len(testX))
	for i, row := range testX {
		predicted[i] = m.forward(row, nil)
	}
	mse, mae := errorMetrics(testY, predicted)

	return &domain.TrainingMetrics{
		Strategy:           StrategyNeural,
		MSE:                mse,
		MAE:                mae,
		TrainingDataPoints: trainEnd,
	}, nil
}

func (m *neural) Predict(horizon int, future *feature.FactorTable) ([]domain.ForecastPoint, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}

	futureTable := &feature.Table{FactorColumns: m.factorColumns}
	for k := 1; k <= horizon; k++ {
		date := m.lastDate.AddDate(0, 0, k)
		futureTable.Rows = append(futureTable.Rows, feature.CalendarRow(date, m.factorColumns, future))
	}

	points := make([]domain.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		row := m.scaler.transform([][]float64{futureTable.Vector(i)})[0]
		pred := m.forward(row, nil)
		margin := 1.96 * neuralUncertaintyFraction * math.Abs(pred)
		points[i] = domain.ForecastPoint{
			Date:            futureTable.Rows[i].Date,
			PredictedDemand: pred,
			ConfidenceLower: pred - margin,
			ConfidenceUpper: pred + margin,
		}
	}

	return clampForecast(points), nil
}

func (m *neural) buildLayers(inputs int, rng *rand.Rand) {
	sizes := append(append([]int{inputs}, m.cfg.HiddenUnits...), 1)
	m.layers = make([]*denseLayer, len(sizes)-1)
	for i := 0; i < len(sizes)-1; i++ {
		m.layers[i] = newDenseLayer(sizes[i], sizes[i+1], rng)
	}
}

// forward runs the network. When rng is non-nil the hidden activations get
// inverted dropout, which only happens during training.
func (m *neural) forward(input []float64, rng *rand.Rand) float64 {
	activation := input
	last := len(m.layers) - 1
	for i, layer := range m.layers {
		hidden := i < last
		activation = layer.forward(activation, hidden)
		if hidden && rng != nil && m.cfg.DropoutRate > 0 {
			keep := 1 - m.cfg.DropoutRate
			for j := range activation {
				if rng.Float64() < m.cfg.DropoutRate {
					activation[j] = 0
					layer.dropped[j] = true
				} else {
					activation[j] /= keep
					layer.dropped[j] = false
				}
			}
		}
	}
	return activation[0]
}

// step performs one stochastic gradient step on a single example.
func (m *neural) step(input []float64, target float64, rng *rand.Rand) {
	pred := m.forward(input, rng)

	// dLoss/dPred for squared error
	grad := []float64{2 * (pred - target)}

	for i := len(m.layers) - 1; i >= 0; i-- {
		hidden := i < len(m.layers)-1
		grad = m.layers[i].backward(grad, hidden, m.cfg.DropoutRate)
	}

	for _, layer := range m.layers {
		layer.adamUpdate(m.cfg.LearningRate)
	}
}

// denseLayer is a fully connected layer with Adam optimizer state.
type denseLayer struct {
	weights [][]float64 // [out][in]
	biases  []float64

	// forward cache
	input   []float64
	preAct  []float64
	dropped []bool

	// gradients
	gradW [][]float64
	gradB []float64

	// Adam moments
	mW, vW [][]float64
	mB, vB []float64
	t      int
}

func newDenseLayer(in, out int, rng *rand.Rand) *denseLayer {
	l := &denseLayer{
		weights: make([][]float64, out),
		biases:  make([]float64, out),
		dropped: make([]bool, out),
		gradW:   make([][]float64, out),
		gradB:   make([]float64, out),
		mW:      make([][]float64, out),
		vW:      make([][]float64, out),
		mB:      make([]float64, out),
		vB:      make([]float64, out),
	}
	// He initialization for the ReLU stack
	scale := math.Sqrt(2 / float64(in))
	for o := 0; o < out; o++ {
		l.weights[o] = make([]float64, in)
		l.gradW[o] = make([]float64, in)
		l.mW[o] = make([]float64, in)
		l.vW[o] = make([]float64, in)
		for i := 0; i < in; i++ {
			l.weights[o][i] = rng.NormFloat64() * scale
		}
	}
	return l
}

func (l *denseLayer) forward(input []float64, relu bool) []float64 {
	l.input = input
	out := make([]float64, len(l.weights))
	l.preAct = make([]float64, len(l.weights))
	for o, w := range l.weights {
		sum := l.biases[o]
		for i, v := range input {
			sum += w[i] * v
		}
		l.preAct[o] = sum
		if relu && sum < 0 {
			sum = 0
		}
		out[o] = sum
	}
	return out
}

// backward consumes the gradient w.r.t. this layer's output and returns the
// gradient w.r.t. its input, caching parameter gradients for adamUpdate.
func (l *denseLayer) backward(gradOut []float64, hidden bool, dropoutRate float64) []float64 {
	gradIn := make([]float64, len(l.input))
	keep := 1 - dropoutRate

	for o := range l.weights {
		g := gradOut[o]
		if hidden {
			if dropoutRate > 0 {
				if l.dropped[o] {
					g = 0
				} else {
					g /= keep
				}
			}
			if l.preAct[o] <= 0 {
				g = 0
			}
		}
		l.gradB[o] = g
		for i, v := range l.input {
			l.gradW[o][i] = g * v
			gradIn[i] += g * l.weights[o][i]
		}
	}
	return gradIn
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

func (l *denseLayer) adamUpdate(lr float64) {
	l.t++
	c1 := 1 - math.Pow(adamBeta1, float64(l.t))
	c2 := 1 - math.Pow(adamBeta2, float64(l.t))

	for o := range l.weights {
		for i := range l.weights[o] {
			g := l.gradW[o][i]
			l.mW[o][i] = adamBeta1*l.mW[o][i] + (1-adamBeta1)*g
			l.vW[o][i] = adamBeta2*l.vW[o][i] + (1-adamBeta2)*g*g
			l.weights[o][i] -= lr * (l.mW[o][i] / c1) / (math.Sqrt(l.vW[o][i]/c2) + adamEpsilon)
		}
		g := l.gradB[o]
		l.mB[o] = adamBeta1*l.mB[o] + (1-adamBeta1)*g
		l.vB[o] = adamBeta2*l.vB[o] + (1-adamBeta2)*g*g
		l.biases[o] -= lr * (l.mB[o] / c1) / (math.Sqrt(l.vB[o]/c2) + adamEpsilon)
	}
}
