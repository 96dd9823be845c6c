// internal/service/forecast_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockcast/internal/cache"
	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/engine/feature"
	"github.com/andresuchdata/stockcast/internal/engine/forecast"
	"github.com/andresuchdata/stockcast/internal/engine/inventory"
	"github.com/andresuchdata/stockcast/internal/repository"
)

// ForecastService wires the engine stages together: it reads sales and
// external factors, builds the feature table, trains a forecasting strategy,
// and derives stock policies and cost reports from the forecast.
//
// Every call constructs a fresh strategy instance, so concurrent requests for
// different products never share model or scaler state.
type ForecastService struct {
	sales    repository.SalesRepository
	factors  repository.FactorRepository
	products repository.ProductRepository
	cache    cache.PolicyCache
	cfg      config.EngineConfig

	optimizer *inventory.Optimizer
	analyzer  *inventory.Analyzer
}

func NewForecastService(
	sales repository.SalesRepository,
	factors repository.FactorRepository,
	products repository.ProductRepository,
	cacheImpl cache.PolicyCache,
	cfg config.EngineConfig,
) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPolicyCache()
	}
	return &ForecastService{
		sales:     sales,
		factors:   factors,
		products:  products,
		cache:     cacheImpl,
		cfg:       cfg,
		optimizer: inventory.NewOptimizer(cfg.OrderCost, cfg.HoldingCostFraction),
		analyzer:  inventory.NewAnalyzer(cfg.HoldingCostFraction),
	}
}

// Forecast trains a model on the product's full sales history and predicts
// demand for the next horizon days.
func (s *ForecastService) Forecast(ctx context.Context, productID int64, horizonDays int) ([]domain.ForecastPoint, *domain.TrainingMetrics, error) {
	if horizonDays <= 0 {
		horizonDays = s.cfg.DefaultHorizonDays
	}

	points, metrics, _, err := s.trainAndPredict(ctx, productID, horizonDays)
	return points, metrics, err
}

// Optimize forecasts demand for the product and derives its stock policy,
// persisting the new reorder point and optimal stock transactionally.
// leadTime <= 0 means "use the product's configured lead time".
func (s *ForecastService) Optimize(ctx context.Context, productID int64, serviceLevel float64, leadTime int) (*domain.StockPolicy, error) {
	if serviceLevel <= 0 {
		serviceLevel = s.cfg.DefaultServiceLevel
	}

	key := cache.PolicyKey{
		ProductID:    productID,
		Strategy:     s.cfg.Strategy,
		HorizonDays:  s.cfg.DefaultHorizonDays,
		ServiceLevel: serviceLevel,
		LeadTime:     leadTime,
	}
	if policy, ok, err := s.cache.GetPolicy(ctx, key); err == nil && ok {
		return policy, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("policy cache get failed")
	}

	points, _, product, err := s.trainAndPredict(ctx, productID, s.cfg.DefaultHorizonDays)
	if err != nil {
		return nil, err
	}

	policy, err := s.optimizer.CalculateOptimalStock(product, points, leadTime, serviceLevel)
	if err != nil {
		return nil, err
	}

	if err := s.products.UpdateStockTargets(ctx, productID, policy.ReorderPoint, policy.OptimalStock); err != nil {
		return nil, fmt.Errorf("persisting stock targets for product %d: %w", productID, err)
	}

	// The write-back changed the product, so policies cached under other
	// parameter combinations are stale now.
	if err := s.cache.InvalidateProduct(ctx, productID); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("policy cache invalidation failed")
	}

	if err := s.cache.SetPolicy(ctx, key, policy); err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("policy cache set failed")
	}

	log.Info().
		Int64("product_id", productID).
		Int("reorder_point", policy.ReorderPoint).
		Int("optimal_stock", policy.OptimalStock).
		Float64("service_level", serviceLevel).
		Msg("stock policy updated")

	return policy, nil
}

// AnalyzeCosts compares the product's current stocking policy against the
// given policy over the analysis horizon.
func (s *ForecastService) AnalyzeCosts(ctx context.Context, productID int64, policy *domain.StockPolicy, days int) (*domain.CostReport, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.analyzer.CalculateStockCosts(product, policy, days), nil
}

// trainAndPredict runs the read → build → train → predict pipeline for one
// product with a strategy instance owned by this call.
func (s *ForecastService) trainAndPredict(ctx context.Context, productID int64, horizonDays int) ([]domain.ForecastPoint, *domain.TrainingMetrics, *domain.Product, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, nil, err
	}

	sales, err := s.sales.GetSales(ctx, productID, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading sales for product %d: %w", productID, err)
	}
	if len(sales) == 0 {
		return nil, nil, nil, forecast.ErrInsufficientData
	}

	factorRecords, err := s.factors.GetFactors(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading external factors: %w", err)
	}
	factors := feature.MergeFactors(factorRecords)

	table := feature.Build(sales, factors)

	strategy, err := forecast.New(s.cfg.Strategy, s.cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	metrics, err := strategy.Train(table)
	if err != nil {
		return nil, nil, nil, err
	}
	metrics.ProductID = productID

	points, err := strategy.Predict(horizonDays, factors)
	if err != nil {
		return nil, nil, nil, err
	}

	log.Debug().
		Int64("product_id", productID).
		Str("strategy", metrics.Strategy).
		Int("horizon_days", horizonDays).
		Int("training_data_points", metrics.TrainingDataPoints).
		Float64("mae", metrics.MAE).
		Msg("forecast generated")

	return points, metrics, product, nil
}
