// internal/repository/postgres/product_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
        SELECT id, sku, name, price, cost, lead_time,
               current_stock, reorder_point, optimal_stock,
               created_at, updated_at
        FROM products
        WHERE id = $1
    `

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product %d not found", id)
		}
		return nil, fmt.Errorf("error getting product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
        SELECT id, sku, name, price, cost, lead_time,
               current_stock, reorder_point, optimal_stock,
               created_at, updated_at
        FROM products
        ORDER BY id
    `

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return products, nil
}

// UpdateStockTargets persists the optimizer's reorder point and optimal stock
// inside a transaction with a row lock, so two optimizer runs for the same
// product cannot interleave partial writes.
func (r *productRepository) UpdateStockTargets(ctx context.Context, id int64, reorderPoint, optimalStock int) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var exists int64
		if err := tx.QueryRowContext(ctx,
			"SELECT id FROM products WHERE id = $1 FOR UPDATE", id,
		).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("product %d not found", id)
			}
			return fmt.Errorf("error locking product: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
            UPDATE products
            SET reorder_point = $2, optimal_stock = $3, updated_at = NOW()
            WHERE id = $1
        `, id, reorderPoint, optimalStock); err != nil {
			return fmt.Errorf("error updating stock targets: %w", err)
		}

		return nil
	})
}
