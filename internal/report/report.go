// internal/report/report.go
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/andresuchdata/stockcast/internal/storage"
)

// recentSalesWindowDays is the trailing window the report summarizes sales
// over.
const recentSalesWindowDays = 30

// archivePrefix is where archived report CSVs live in the bucket.
const archivePrefix = "reports/"

// Generator builds inventory reports across products and optionally archives
// the CSV rendering to object storage.
type Generator struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	store    storage.ObjectStorage // nil disables archiving
}

func NewGenerator(products repository.ProductRepository, sales repository.SalesRepository, store storage.ObjectStorage) *Generator {
	return &Generator{products: products, sales: sales, store: store}
}

// Generate aggregates stock value, cost, margin and recent sales for every
// product, sorted by stock value descending.
func (g *Generator) Generate(ctx context.Context) (*domain.InventoryReport, error) {
	products, err := g.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing products for report: %w", err)
	}

	rep := &domain.InventoryReport{
		GeneratedAt:   time.Now(),
		TotalProducts: len(products),
		Products:      make([]domain.ProductReportLine, 0, len(products)),
	}

	for _, p := range products {
		quantity, revenue, err := g.sales.GetRecentTotals(ctx, p.ID, recentSalesWindowDays)
		if err != nil {
			return nil, fmt.Errorf("recent sales for product %d: %w", p.ID, err)
		}

		line := domain.ProductReportLine{
			ID:            p.ID,
			SKU:           p.SKU,
			Name:          p.Name,
			CurrentStock:  p.CurrentStock,
			ReorderPoint:  p.ReorderPoint,
			OptimalStock:  p.OptimalStock,
			StockValue:    float64(p.CurrentStock) * p.Price,
			StockCost:     float64(p.CurrentStock) * p.Cost,
			RecentSales:   quantity,
			RecentRevenue: revenue,
		}
		if p.Price > 0 {
			line.Margin = (p.Price - p.Cost) / p.Price
		}

		rep.TotalValue += line.StockValue
		rep.TotalCost += line.StockCost
		rep.Products = append(rep.Products, line)
	}

	sort.Slice(rep.Products, func(i, j int) bool {
		return rep.Products[i].StockValue > rep.Products[j].StockValue
	})

	return rep, nil
}

// RenderCSV renders the report as CSV.
func RenderCSV(rep *domain.InventoryReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "sku", "name", "current_stock", "reorder_point", "optimal_stock",
		"stock_value", "stock_cost", "margin", "recent_sales", "recent_revenue",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, line := range rep.Products {
		record := []string{
			strconv.FormatInt(line.ID, 10),
			line.SKU,
			line.Name,
			strconv.Itoa(line.CurrentStock),
			strconv.Itoa(line.ReorderPoint),
			strconv.Itoa(line.OptimalStock),
			strconv.FormatFloat(line.StockValue, 'f', 2, 64),
			strconv.FormatFloat(line.StockCost, 'f', 2, 64),
			strconv.FormatFloat(line.Margin, 'f', 4, 64),
			strconv.Itoa(line.RecentSales),
			strconv.FormatFloat(line.RecentRevenue, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Archive uploads the CSV rendering to object storage under a dated key.
// It is a no-op when no storage backend is configured.
func (g *Generator) Archive(ctx context.Context, rep *domain.InventoryReport) (string, error) {
	if g.store == nil {
		return "", nil
	}

	payload, err := RenderCSV(rep)
	if err != nil {
		return "", fmt.Errorf("rendering report csv: %w", err)
	}

	key := fmt.Sprintf("%sinventory_%s.csv", archivePrefix, rep.GeneratedAt.Format("20060102_150405"))
	if err := g.store.UploadObject(ctx, key, payload); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("products", rep.TotalProducts).Msg("inventory report archived")
	return key, nil
}

// ListArchives returns the reports previously uploaded to object storage.
// Without a storage backend there is nothing to list.
func (g *Generator) ListArchives(ctx context.Context) ([]storage.ObjectInfo, error) {
	if g.store == nil {
		return nil, nil
	}
	return g.store.ListObjects(ctx, archivePrefix)
}
