// internal/domain/models.go
package domain

import "time"

// Product carries the inventory parameters the engine reads for a product.
// Only ReorderPoint and OptimalStock are ever written back, and only through
// ProductRepository.UpdateStockTargets.
type Product struct {
	ID           int64     `json:"id" db:"id"`
	SKU          string    `json:"sku" db:"sku"`
	Name         string    `json:"name" db:"name"`
	Price        float64   `json:"price" db:"price"`
	Cost         float64   `json:"cost" db:"cost"`
	LeadTime     int       `json:"lead_time" db:"lead_time"`
	CurrentStock int       `json:"current_stock" db:"current_stock"`
	ReorderPoint int       `json:"reorder_point" db:"reorder_point"`
	OptimalStock int       `json:"optimal_stock" db:"optimal_stock"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SalesRecord is an immutable historical sales fact. Multiple records per
// product per day are aggregated to one daily total before feature building.
type SalesRecord struct {
	Date       time.Time `json:"date" db:"date"`
	Quantity   int       `json:"quantity" db:"quantity"`
	UnitPrice  float64   `json:"unit_price" db:"unit_price"`
	TotalPrice float64   `json:"total_price" db:"total_price"`
	Channel    string    `json:"channel" db:"channel"`
}

// Factor categories for external signals.
const (
	FactorWeather   = "weather"
	FactorHoliday   = "holiday"
	FactorPromotion = "promotion"
)

// ExternalFactorRecord is a dated external signal (weather, holiday or
// promotion) with an impact level in [-1, 1].
type ExternalFactorRecord struct {
	Date        time.Time `json:"date" db:"date"`
	Name        string    `json:"name" db:"name"`
	Category    string    `json:"category" db:"category"`
	ImpactLevel float64   `json:"impact_level" db:"impact_level"`
}

// ForecastPoint is one day of the demand forecast. Points are produced fresh
// per run and never mutated, only superseded by the next run.
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	PredictedDemand float64   `json:"predicted_demand"`
	ConfidenceLower float64   `json:"confidence_lower"`
	ConfidenceUpper float64   `json:"confidence_upper"`
}

// TrainingMetrics summarizes an in-sample model fit.
type TrainingMetrics struct {
	ProductID          int64              `json:"product_id,omitempty"`
	Strategy           string             `json:"strategy"`
	MSE                float64            `json:"mse"`
	MAE                float64            `json:"mae"`
	TrainingDataPoints int                `json:"training_data_points"`
	FeatureImportance  map[string]float64 `json:"feature_importance,omitempty"`
}

// StockPolicy holds the stock-control parameters derived from a forecast.
type StockPolicy struct {
	ProductID              int64   `json:"product_id"`
	CurrentStock           int     `json:"current_stock"`
	AvgDailyDemand         float64 `json:"avg_daily_demand"`
	DemandVariability      float64 `json:"demand_variability"`
	SafetyStock            int     `json:"safety_stock"`
	ReorderPoint           int     `json:"reorder_point"`
	EconomicOrderQuantity  int     `json:"economic_order_quantity"`
	OptimalStock           int     `json:"optimal_stock"`
	ServiceLevel           float64 `json:"service_level"`
	LeadTime               int     `json:"lead_time"`
}

// PolicyCost breaks down the projected cost of running one stocking policy.
type PolicyCost struct {
	HoldingCost         float64 `json:"holding_cost"`
	StockoutProbability float64 `json:"stockout_probability"`
	ExpectedStockouts   float64 `json:"expected_stockouts"`
	StockoutCost        float64 `json:"stockout_cost"`
	TotalCost           float64 `json:"total_cost"`
}

// CostReport compares the current stocking policy against the optimal one.
type CostReport struct {
	ProductID        int64      `json:"product_id"`
	DaysAnalyzed     int        `json:"days_analyzed"`
	CurrentPolicy    PolicyCost `json:"current_policy"`
	OptimalPolicy    PolicyCost `json:"optimal_policy"`
	PotentialSavings float64    `json:"potential_savings"`
	SavingsPercent   float64    `json:"savings_percent"`
}

// ProductReportLine is one product's entry in the inventory report.
type ProductReportLine struct {
	ID            int64   `json:"id"`
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	CurrentStock  int     `json:"current_stock"`
	ReorderPoint  int     `json:"reorder_point"`
	OptimalStock  int     `json:"optimal_stock"`
	StockValue    float64 `json:"stock_value"`
	StockCost     float64 `json:"stock_cost"`
	Margin        float64 `json:"margin"`
	RecentSales   int     `json:"recent_sales"`
	RecentRevenue float64 `json:"recent_revenue"`
}

// InventoryReport aggregates stock value and recent sales across products,
// sorted by stock value descending.
type InventoryReport struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	TotalProducts int                 `json:"total_products"`
	TotalValue    float64             `json:"total_value"`
	TotalCost     float64             `json:"total_cost"`
	Products      []ProductReportLine `json:"products"`
}
