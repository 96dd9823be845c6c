// internal/engine/forecast/forest.go
package forecast

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/engine/feature"
)

// minForestRows is the shortest history the ensemble can be fit on: anything
// less leaves the chronological test split too small to score.
const minForestRows = 30

// forest is a bagged ensemble of regression trees over the full engineered
// feature table, external factor columns included. The 95% interval comes
// from the spread of the individual trees' predictions (mean ± 1.96·std).
type forest struct {
	cfg config.ForestConfig

	trained       bool
	lastDate      time.Time
	scaler        standardScaler
	trees         []*regressionTree
	featureNames  []string
	factorColumns []string
}

func newForest(cfg config.ForestConfig) *forest {
	if cfg.Trees < 1 {
		cfg.Trees = 100
	}
	if cfg.MaxDepth < 1 {
		cfg.MaxDepth = 10
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 5
	}
	return &forest{cfg: cfg}
}

func (f *forest) IsTrained() bool { return f.trained }

func (f *forest) Train(table *feature.Table) (*domain.TrainingMetrics, error) {
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
	trainX := f.scaler.fitTransform(rows[:trainEnd])
	trainY := y[:trainEnd]
	testX := f.scaler.transform(rows[trainEnd:])
	testY := y[trainEnd:]

	rng := rand.New(rand.NewSource(f.cfg.Seed))
	importance := make([]float64, len(table.FeatureNames()))

	f.trees = make([]*regressionTree, f.cfg.Trees)
	for t := 0; t < f.cfg.Trees; t++ {
		// Bootstrap sample with replacement.
		sample := make([]int, len(trainX))
		for i := range sample {
			sample[i] = rng.Intn(len(trainX))
		}
		tree := &regressionTree{
			maxDepth:        f.cfg.MaxDepth,
			minSamplesSplit: f.cfg.MinSamplesSplit,
			importance:      importance,
		}
		tree.fit(trainX, trainY, sample)
		f.trees[t] = tree
	}

	f.featureNames = table.FeatureNames()
	f.factorColumns = table.FactorColumns
	f.lastDate = table.LastDate()
	f.trained = true

	predicted := make([]float64, len(testX))
	for i, row := range testX {
		predicted[i], _ = f.ensemblePredict(row)
	}
	mse, mae := errorMetrics(testY, predicted)

	return &domain.TrainingMetrics{
		Strategy:           StrategyForest,
		MSE:                mse,
		MAE:                mae,
		TrainingDataPoints: trainEnd,
		FeatureImportance:  f.featureImportance(importance),
	}, nil
}

func (f *forest) Predict(horizon int, future *feature.FactorTable) ([]domain.ForecastPoint, error) {
	if !f.trained {
		return nil, ErrNotTrained
	}
	if horizon < 1 {
		return nil, ErrInvalidHorizon
	}

	futureTable := &feature.Table{FactorColumns: f.factorColumns}
	for k := 1; k <= horizon; k++ {
		date := f.lastDate.AddDate(0, 0, k)
		futureTable.Rows = append(futureTable.Rows, feature.CalendarRow(date, f.factorColumns, future))
	}

	points := make([]domain.ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		row := f.scaler.transform([][]float64{futureTable.Vector(i)})[0]
		mean, std := f.ensemblePredict(row)
		margin := 1.96 * std
		points[i] = domain.ForecastPoint{
			Date:            futureTable.Rows[i].Date,
			PredictedDemand: mean,
			ConfidenceLower: mean - margin,
			ConfidenceUpper: mean + margin,
		}
	}

	return clampForecast(points), nil
}

// ensemblePredict returns the mean prediction across trees and the
// population standard deviation of the individual tree predictions.
func (f *forest) ensemblePredict(row []float64) (mean, std float64) {
	preds := make([]float64, len(f.trees))
	var sum float64
	for i, tree := range f.trees {
		preds[i] = tree.predict(row)
		sum += preds[i]
	}
	mean = sum / float64(len(preds))

	var ss float64
	for _, p := range preds {
		ss += (p - mean) * (p - mean)
	}
	return mean, math.Sqrt(ss / float64(len(preds)))
}

// featureImportance normalizes accumulated impurity decreases into a map
// summing to 1 (all zeros when no split ever improved impurity).
func (f *forest) featureImportance(raw []float64) map[string]float64 {
	var total float64
	for _, v := range raw {
		total += v
	}

	out := make(map[string]float64, len(f.featureNames))
	for i, name := range f.featureNames {
		if total > 0 {
			out[name] = raw[i] / total
		} else {
			out[name] = 0
		}
	}
	return out
}

// regressionTree is a CART regression tree grown on variance reduction.
type regressionTree struct {
	maxDepth        int
	minSamplesSplit int
	importance      []float64 // shared accumulator across the ensemble

	root *treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (t *regressionTree) fit(rows [][]float64, y []float64, indices []int) {
	t.root = t.grow(rows, y, indices, 0)
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t.root
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func (t *regressionTree) grow(rows [][]float64, y []float64, indices []int, depth int) *treeNode {
	mean, sse := meanSSE(y, indices)

	if depth >= t.maxDepth || len(indices) < t.minSamplesSplit || sse == 0 {
		return &treeNode{leaf: true, value: mean}
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	var bestLeft, bestRight []int

	for j := range rows[indices[0]] {
		left, right, threshold, gain := bestSplitOnFeature(rows, y, indices, j, sse)
		if gain > bestGain {
			bestFeature, bestThreshold, bestGain = j, threshold, gain
			bestLeft, bestRight = left, right
		}
	}

	if bestFeature < 0 {
		return &treeNode{leaf: true, value: mean}
	}

	t.importance[bestFeature] += bestGain

	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      t.grow(rows, y, bestLeft, depth+1),
		right:     t.grow(rows, y, bestRight, depth+1),
	}
}

// bestSplitOnFeature scans candidate thresholds for one feature and returns
// the split with the largest SSE reduction, if any.
func bestSplitOnFeature(rows [][]float64, y []float64, indices []int, featureIdx int, parentSSE float64) (left, right []int, threshold, gain float64) {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sortByFeature(rows, sorted, featureIdx)

	var sumL, sumL2 float64
	var sumR, sumR2 float64
	for _, i := range sorted {
		sumR += y[i]
		sumR2 += y[i] * y[i]
	}

	total := len(sorted)
	bestGain := 0.0
	bestPos := -1

	for pos := 0; pos < total-1; pos++ {
		i := sorted[pos]
		sumL += y[i]
		sumL2 += y[i] * y[i]
		sumR -= y[i]
		sumR2 -= y[i] * y[i]

		// can't split between identical feature values
		if rows[i][featureIdx] == rows[sorted[pos+1]][featureIdx] {
			continue
		}

		nL := float64(pos + 1)
		nR := float64(total - pos - 1)
		sseL := sumL2 - sumL*sumL/nL
		sseR := sumR2 - sumR*sumR/nR

		if g := parentSSE - sseL - sseR; g > bestGain {
			bestGain = g
			bestPos = pos
		}
	}

	if bestPos < 0 {
		return nil, nil, 0, 0
	}

	threshold = (rows[sorted[bestPos]][featureIdx] + rows[sorted[bestPos+1]][featureIdx]) / 2
	left = append([]int(nil), sorted[:bestPos+1]...)
	right = append([]int(nil), sorted[bestPos+1:]...)
	return left, right, threshold, bestGain
}

func sortByFeature(rows [][]float64, indices []int, featureIdx int) {
	sort.Slice(indices, func(a, b int) bool {
		return rows[indices[a]][featureIdx] < rows[indices[b]][featureIdx]
	})
}

func meanSSE(y []float64, indices []int) (mean, sse float64) {
	if len(indices) == 0 {
		return 0, 0
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	mean = sum / float64(len(indices))
	for _, i := range indices {
		sse += (y[i] - mean) * (y[i] - mean)
	}
	return mean, sse
}
