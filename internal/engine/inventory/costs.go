// internal/engine/inventory/costs.go
package inventory

import (
	"math"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Analyzer projects holding and stockout costs for stocking policies. Like
// the optimizer it is a pure function of its inputs.
type Analyzer struct {
	holdingCostFraction float64
}

// NewAnalyzer builds a cost analyzer. A non-positive fraction falls back to
// the 0.25 annual holding default.
func NewAnalyzer(holdingCostFraction float64) *Analyzer {
	if holdingCostFraction <= 0 {
		holdingCostFraction = 0.25
	}
	return &Analyzer{holdingCostFraction: holdingCostFraction}
}

// CalculateStockCosts compares the cost of the product's current stocking
// policy against the optimal policy over the given horizon and reports the
// potential savings.
func (a *Analyzer) CalculateStockCosts(product *domain.Product, policy *domain.StockPolicy, days int) *domain.CostReport {
	if days <= 0 {
		days = 30
	}
	leadTime := policy.LeadTime
	if leadTime <= 0 {
		leadTime = product.LeadTime
	}
	// A product without a configured lead time counts as next-day
	// replenishment; leadTime divides the horizon below, so 0 must not pass.
	if leadTime < 1 {
		leadTime = 1
	}

	current := a.policyCost(product, policy, days, leadTime,
		float64(product.CurrentStock), float64(product.ReorderPoint))
	optimal := a.policyCost(product, policy, days, leadTime,
		float64(policy.OptimalStock), float64(policy.ReorderPoint))

	savings := current.TotalCost - optimal.TotalCost
	savingsPercent := 0.0
	if current.TotalCost > 0 {
		savingsPercent = savings / current.TotalCost * 100
	}

	return &domain.CostReport{
		ProductID:        product.ID,
		DaysAnalyzed:     days,
		CurrentPolicy:    current,
		OptimalPolicy:    optimal,
		PotentialSavings: savings,
		SavingsPercent:   savingsPercent,
	}
}

// policyCost projects the cost of running one policy: daily holding cost on
// the held stock plus expected lost-margin cost from stockouts during lead
// time.
func (a *Analyzer) policyCost(product *domain.Product, policy *domain.StockPolicy, days, leadTime int, stockLevel, reorderPoint float64) domain.PolicyCost {
	dailyHoldingFraction := a.holdingCostFraction / 365
	holdingCost := stockLevel * product.Cost * dailyHoldingFraction * float64(days)

	stockoutProb := stockoutProbability(reorderPoint, policy.AvgDailyDemand, policy.DemandVariability, leadTime)
	expectedStockouts := stockoutProb * float64(days) / float64(leadTime)

	marginPerUnit := product.Price - product.Cost
	stockoutCost := expectedStockouts * policy.AvgDailyDemand * marginPerUnit

	return domain.PolicyCost{
		HoldingCost:         holdingCost,
		StockoutProbability: stockoutProb,
		ExpectedStockouts:   expectedStockouts,
		StockoutCost:        stockoutCost,
		TotalCost:           holdingCost + stockoutCost,
	}
}

// stockoutProbability is 1 − Φ(z) with z measuring how far the reorder point
// sits above expected lead-time demand. Zero demand variability makes the
// ratio undefined; a deterministic demand stream covered by the reorder
// policy cannot stock out, so the probability is 0 in that case.
func stockoutProbability(reorderPoint, avgDailyDemand, demandStd float64, leadTime int) float64 {
	if demandStd == 0 {
		return 0
	}
	z := (reorderPoint - avgDailyDemand*float64(leadTime)) / (demandStd * math.Sqrt(float64(leadTime)))
	return 1 - normalCDF(z)
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
