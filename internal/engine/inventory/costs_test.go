package inventory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
)

func TestCalculateStockCostsAlignedPolicyHasNoSavings(t *testing.T) {
	// Current stocking already matches the optimal policy and demand is
	// deterministic: both sides cost the same and savings are zero.
	product := &domain.Product{
		ID:           1,
		Cost:         10,
		Price:        18,
		LeadTime:     7,
		CurrentStock: 226,
		ReorderPoint: 35,
	}
	policy := &domain.StockPolicy{
		ProductID:         1,
		AvgDailyDemand:    5,
		DemandVariability: 0,
		ReorderPoint:      35,
		OptimalStock:      226,
		LeadTime:          7,
	}

	report := NewAnalyzer(0.25).CalculateStockCosts(product, policy, 30)

	assert.Equal(t, int64(1), report.ProductID)
	assert.Equal(t, 30, report.DaysAnalyzed)
	assert.Equal(t, 0.0, report.CurrentPolicy.StockoutProbability)
	assert.Equal(t, 0.0, report.OptimalPolicy.StockoutProbability)
	assert.InDelta(t, 0.0, report.PotentialSavings, 1e-9)
	assert.InDelta(t, 0.0, report.SavingsPercent, 1e-9)
}

func TestCalculateStockCostsOverstockedProduct(t *testing.T) {
	// Holding twice the optimal stock of a deterministic-demand product only
	// adds holding cost, so moving to the optimal policy saves money.
	product := &domain.Product{
		ID:           2,
		Cost:         10,
		Price:        18,
		LeadTime:     7,
		CurrentStock: 452,
		ReorderPoint: 35,
	}
	policy := &domain.StockPolicy{
		ProductID:         2,
		AvgDailyDemand:    5,
		DemandVariability: 0,
		ReorderPoint:      35,
		OptimalStock:      226,
		LeadTime:          7,
	}

	report := NewAnalyzer(0.25).CalculateStockCosts(product, policy, 30)

	// holding = stock * cost * (0.25/365) * 30
	expectedCurrent := 452.0 * 10 * (0.25 / 365) * 30
	expectedOptimal := 226.0 * 10 * (0.25 / 365) * 30
	assert.InDelta(t, expectedCurrent, report.CurrentPolicy.HoldingCost, 1e-9)
	assert.InDelta(t, expectedOptimal, report.OptimalPolicy.HoldingCost, 1e-9)

	assert.InDelta(t, expectedCurrent-expectedOptimal, report.PotentialSavings, 1e-9)
	assert.InDelta(t, 50.0, report.SavingsPercent, 1e-9)
}

func TestCalculateStockCostsUndersizedReorderPoint(t *testing.T) {
	// A reorder point below expected lead-time demand stocks out more than
	// half the time; the optimal policy's safety margin pushes the
	// probability below one half.
	product := &domain.Product{
		ID:           3,
		Cost:         10,
		Price:        18,
		LeadTime:     4,
		CurrentStock: 30,
		ReorderPoint: 10, // expected lead-time demand is 20
	}
	policy := &domain.StockPolicy{
		ProductID:         3,
		AvgDailyDemand:    5,
		DemandVariability: 2,
		ReorderPoint:      28,
		OptimalStock:      120,
		LeadTime:          4,
	}

	report := NewAnalyzer(0.25).CalculateStockCosts(product, policy, 30)

	assert.Greater(t, report.CurrentPolicy.StockoutProbability, 0.5)
	assert.Less(t, report.OptimalPolicy.StockoutProbability, 0.5)
	assert.Greater(t, report.CurrentPolicy.StockoutCost, report.OptimalPolicy.StockoutCost)

	// expected stockouts scale the per-cycle probability by cycles in the window
	expected := report.CurrentPolicy.StockoutProbability * 30 / 4
	assert.InDelta(t, expected, report.CurrentPolicy.ExpectedStockouts, 1e-9)
}

func TestCalculateStockCostsDefaultsHorizon(t *testing.T) {
	product := &domain.Product{ID: 4, Cost: 10, Price: 18, LeadTime: 7, CurrentStock: 50}
	policy := &domain.StockPolicy{AvgDailyDemand: 5, ReorderPoint: 35, OptimalStock: 100, LeadTime: 7}

	report := NewAnalyzer(0.25).CalculateStockCosts(product, policy, 0)

	assert.Equal(t, 30, report.DaysAnalyzed)
}

func TestCalculateStockCostsZeroLeadTime(t *testing.T) {
	// Neither the product nor the policy carries a lead time; the analyzer
	// falls back to next-day replenishment instead of dividing by zero.
	product := &domain.Product{
		ID:           5,
		Cost:         10,
		Price:        18,
		LeadTime:     0,
		CurrentStock: 40,
		ReorderPoint: 10,
	}
	policy := &domain.StockPolicy{
		ProductID:         5,
		AvgDailyDemand:    5,
		DemandVariability: 2,
		ReorderPoint:      8,
		OptimalStock:      100,
		LeadTime:          0,
	}

	report := NewAnalyzer(0.25).CalculateStockCosts(product, policy, 30)

	for _, cost := range []domain.PolicyCost{report.CurrentPolicy, report.OptimalPolicy} {
		assert.False(t, math.IsNaN(cost.StockoutProbability))
		assert.False(t, math.IsNaN(cost.ExpectedStockouts))
		assert.False(t, math.IsNaN(cost.StockoutCost))
		assert.False(t, math.IsNaN(cost.TotalCost))
		assert.False(t, math.IsInf(cost.TotalCost, 0))
	}
	assert.False(t, math.IsNaN(report.PotentialSavings))

	// With a one-day lead time every day is its own cycle.
	expected := report.CurrentPolicy.StockoutProbability * 30
	assert.InDelta(t, expected, report.CurrentPolicy.ExpectedStockouts, 1e-9)
}

func TestStockoutProbability(t *testing.T) {
	// Reorder point exactly at expected lead-time demand: a coin flip.
	assert.InDelta(t, 0.5, stockoutProbability(20, 5, 2, 4), 1e-9)

	// Far above expected demand: effectively never.
	assert.Less(t, stockoutProbability(40, 5, 2, 4), 0.001)

	// Zero variability means demand is covered deterministically.
	assert.Equal(t, 0.0, stockoutProbability(10, 5, 0, 4))
}

func TestNormalCDF(t *testing.T) {
	require.InDelta(t, 0.5, normalCDF(0), 1e-12)
	require.InDelta(t, 0.975, normalCDF(1.96), 1e-3)
	require.InDelta(t, 0.025, normalCDF(-1.96), 1e-3)
}
