// internal/engine/inventory/optimizer.go
package inventory

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// ErrEmptyForecast means there are no forecast points to derive a policy from.
var ErrEmptyForecast = errors.New("cannot derive stock policy from an empty forecast")

// Optimizer derives stock-control parameters from a demand forecast. It is
// stateless; the same forecast and parameters always produce the same policy.
type Optimizer struct {
	orderCost           float64 // fixed cost per purchase order
	holdingCostFraction float64 // annual holding cost as fraction of unit cost
}

// NewOptimizer builds an optimizer with the given cost constants. Zero values
// fall back to the long-standing defaults (25 per order, 0.25 annual holding
// fraction).
func NewOptimizer(orderCost, holdingCostFraction float64) *Optimizer {
	if orderCost <= 0 {
		orderCost = 25
	}
	if holdingCostFraction <= 0 {
		holdingCostFraction = 0.25
	}
	return &Optimizer{orderCost: orderCost, holdingCostFraction: holdingCostFraction}
}

// zScore maps a service level to its one-sided normal quantile. Only the
// three levels the product supports are recognized; anything else falls back
// to the 95% assumption with a warning. This is a deliberate simplification,
// not a continuous inverse-normal lookup.
func zScore(serviceLevel float64) float64 {
	switch serviceLevel {
	case 0.90:
		return 1.64
	case 0.95:
		return 1.96
	case 0.99:
		return 2.58
	default:
		log.Warn().
			Float64("service_level", serviceLevel).
			Msg("unrecognized service level, assuming 95%")
		return 1.96
	}
}

// CalculateOptimalStock computes the stock policy for a product given its
// demand forecast. leadTime <= 0 means "use the product's lead time".
//
//	safety_stock  = z · σ(demand) · √lead_time
//	reorder_point = avg_daily_demand · lead_time + safety_stock
//	EOQ           = √(2 · annual_demand · order_cost / holding_cost)
//	optimal_stock = reorder_point + EOQ
//
// Stock-level outputs are rounded to whole units. The caller persists
// ReorderPoint and OptimalStock back onto the product; that write must be
// transactional with respect to concurrent readers.
func (o *Optimizer) CalculateOptimalStock(product *domain.Product, forecast []domain.ForecastPoint, leadTime int, serviceLevel float64) (*domain.StockPolicy, error) {
	if len(forecast) == 0 {
		return nil, ErrEmptyForecast
	}
	if leadTime <= 0 {
		leadTime = product.LeadTime
	}
	if leadTime < 1 {
		leadTime = 1
	}

	avgDemand, demandStd := demandStats(forecast)
	z := zScore(serviceLevel)

	safetyStock := z * demandStd * math.Sqrt(float64(leadTime))
	reorderPoint := avgDemand*float64(leadTime) + safetyStock

	annualDemand := avgDemand * 365
	holdingCost := product.Cost * o.holdingCostFraction
	var eoq float64
	if holdingCost > 0 {
		eoq = math.Sqrt(2 * annualDemand * o.orderCost / holdingCost)
	}

	optimalStock := reorderPoint + eoq

	return &domain.StockPolicy{
		ProductID:             product.ID,
		CurrentStock:          product.CurrentStock,
		AvgDailyDemand:        avgDemand,
		DemandVariability:     demandStd,
		SafetyStock:           int(math.Round(safetyStock)),
		ReorderPoint:          int(math.Round(reorderPoint)),
		EconomicOrderQuantity: int(math.Round(eoq)),
		OptimalStock:          int(math.Round(optimalStock)),
		ServiceLevel:          serviceLevel,
		LeadTime:              leadTime,
	}, nil
}

// demandStats returns the mean and population standard deviation of the
// predicted demand over the forecast window.
func demandStats(forecast []domain.ForecastPoint) (mean, std float64) {
	n := float64(len(forecast))
	var sum float64
	for _, p := range forecast {
		sum += p.PredictedDemand
	}
	mean = sum / n

	var ss float64
	for _, p := range forecast {
		ss += (p.PredictedDemand - mean) * (p.PredictedDemand - mean)
	}
	return mean, math.Sqrt(ss / n)
}
