// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// SalesRepository reads historical sales facts for a product.
type SalesRepository interface {
	// GetSales returns sales records for a product within [start, end].
	// Zero time bounds mean "unbounded" on that side.
	GetSales(ctx context.Context, productID int64, start, end time.Time) ([]domain.SalesRecord, error)

	// GetRecentTotals returns the summed quantity and revenue for a product
	// over the trailing number of days.
	GetRecentTotals(ctx context.Context, productID int64, days int) (int, float64, error)
}

// FactorRepository reads external factor records.
type FactorRepository interface {
	// GetFactors returns external factor records within [start, end].
	// Zero time bounds mean "unbounded" on that side.
	GetFactors(ctx context.Context, start, end time.Time) ([]domain.ExternalFactorRecord, error)
}

// ProductRepository reads product parameters and persists the engine's
// computed stock targets.
type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// UpdateStockTargets writes reorder_point and optimal_stock for a
	// product. Implementations must make the write atomic with respect to
	// concurrent readers of the same product.
	UpdateStockTargets(ctx context.Context, id int64, reorderPoint, optimalStock int) error
}
