// internal/repository/postgres/sales_repository.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetSales(ctx context.Context, productID int64, start, end time.Time) ([]domain.SalesRecord, error) {
	query := `
        SELECT date, quantity, unit_price, total_price, channel
        FROM sales
        WHERE product_id = $1
    `

	args := []interface{}{productID}
	var conditions []string
	argCounter := 2

	if !start.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argCounter))
		args = append(args, start)
		argCounter++
	}

	if !end.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argCounter))
		args = append(args, end)
		argCounter++
	}

	if len(conditions) > 0 {
		query += " AND " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY date"

	var records []domain.SalesRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error getting sales records: %w", err)
	}

	return records, nil
}

func (r *salesRepository) GetRecentTotals(ctx context.Context, productID int64, days int) (int, float64, error) {
	if days <= 0 {
		days = 30
	}

	query := `
        SELECT
            COALESCE(SUM(quantity), 0) as quantity,
            COALESCE(SUM(total_price), 0) as revenue
        FROM sales
        WHERE product_id = $1
          AND date >= current_date - ($2 || ' days')::interval
    `

	var totals struct {
		Quantity int     `db:"quantity"`
		Revenue  float64 `db:"revenue"`
	}
	if err := r.db.GetContext(ctx, &totals, query, productID, days); err != nil {
		return 0, 0, fmt.Errorf("error getting recent sales totals: %w", err)
	}

	return totals.Quantity, totals.Revenue, nil
}
