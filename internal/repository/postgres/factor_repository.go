// internal/repository/postgres/factor_repository.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
)

type factorRepository struct {
	db *DB
}

func NewFactorRepository(db *DB) repository.FactorRepository {
	return &factorRepository{db: db}
}

func (r *factorRepository) GetFactors(ctx context.Context, start, end time.Time) ([]domain.ExternalFactorRecord, error) {
	query := `
        SELECT date, name, category, impact_level
        FROM external_factors
        WHERE 1=1
    `

	var args []interface{}
	var conditions []string
	argCounter := 1

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

	query += " ORDER BY date, category, name"

	var records []domain.ExternalFactorRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error getting external factors: %w", err)
	}

	return records, nil
}
