package report

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/storage"
)

type fakeProductRepo struct {
	products []domain.Product
}

func (f *fakeProductRepo) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, context.Canceled
}

func (f *fakeProductRepo) ListProducts(_ context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) UpdateStockTargets(_ context.Context, _ int64, _, _ int) error {
	return nil
}

type fakeSalesRepo struct {
	totals map[int64]struct {
		quantity int
		revenue  float64
	}
}

func (f *fakeSalesRepo) GetSales(_ context.Context, _ int64, _, _ time.Time) ([]domain.SalesRecord, error) {
	return nil, nil
}

func (f *fakeSalesRepo) GetRecentTotals(_ context.Context, productID int64, _ int) (int, float64, error) {
	t := f.totals[productID]
	return t.quantity, t.revenue, nil
}

type fakeStore struct {
	uploads map[string][]byte
}

func (f *fakeStore) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for key, data := range f.uploads {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return objects, nil
}

func (f *fakeStore) UploadObject(_ context.Context, key string, data []byte) error {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return nil
}

func testRepos() (*fakeProductRepo, *fakeSalesRepo) {
	products := &fakeProductRepo{products: []domain.Product{
		{ID: 1, SKU: "A-1", Name: "Cheap", Price: 2, Cost: 1, CurrentStock: 10},
		{ID: 2, SKU: "B-2", Name: "Pricey", Price: 100, Cost: 60, CurrentStock: 5},
	}}
	sales := &fakeSalesRepo{totals: map[int64]struct {
		quantity int
		revenue  float64
	}{
		1: {quantity: 30, revenue: 60},
		2: {quantity: 2, revenue: 200},
	}}
	return products, sales
}

func TestGenerate(t *testing.T) {
	products, sales := testRepos()
	g := NewGenerator(products, sales, nil)

	rep, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TotalProducts)
	assert.InDelta(t, 520.0, rep.TotalValue, 1e-9) // 10*2 + 5*100
	assert.InDelta(t, 310.0, rep.TotalCost, 1e-9)  // 10*1 + 5*60

	// Sorted by stock value descending, so the pricey product comes first.
	require.Len(t, rep.Products, 2)
	assert.Equal(t, "B-2", rep.Products[0].SKU)
	assert.InDelta(t, 0.4, rep.Products[0].Margin, 1e-9)
	assert.Equal(t, 2, rep.Products[0].RecentSales)

	assert.Equal(t, "A-1", rep.Products[1].SKU)
	assert.Equal(t, 30, rep.Products[1].RecentSales)
	assert.InDelta(t, 60.0, rep.Products[1].RecentRevenue, 1e-9)
}

func TestRenderCSV(t *testing.T) {
	products, sales := testRepos()
	rep, err := NewGenerator(products, sales, nil).Generate(context.Background())
	require.NoError(t, err)

	payload, err := RenderCSV(rep)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + one row per product

	assert.Equal(t, "sku", rows[0][1])
	assert.Equal(t, "B-2", rows[1][1])
	assert.Equal(t, "A-1", rows[2][1])
	assert.Equal(t, "500.00", rows[1][6])
}

func TestArchiveWithoutStore(t *testing.T) {
	products, sales := testRepos()
	g := NewGenerator(products, sales, nil)
	rep, err := g.Generate(context.Background())
	require.NoError(t, err)

	key, err := g.Archive(context.Background(), rep)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestListArchives(t *testing.T) {
	products, sales := testRepos()
	store := &fakeStore{}
	g := NewGenerator(products, sales, store)

	rep, err := g.Generate(context.Background())
	require.NoError(t, err)
	key, err := g.Archive(context.Background(), rep)
	require.NoError(t, err)

	objects, err := g.ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)
	assert.Greater(t, objects[0].Size, int64(0))
}

func TestListArchivesWithoutStore(t *testing.T) {
	products, sales := testRepos()
	g := NewGenerator(products, sales, nil)

	objects, err := g.ListArchives(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestArchiveUploadsCSV(t *testing.T) {
	products, sales := testRepos()
	store := &fakeStore{}
	g := NewGenerator(products, sales, store)
	rep, err := g.Generate(context.Background())
	require.NoError(t, err)

	key, err := g.Archive(context.Background(), rep)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "reports/inventory_"))
	assert.True(t, strings.HasSuffix(key, ".csv"))
	require.Contains(t, store.uploads, key)
	assert.Contains(t, string(store.uploads[key]), "B-2")
}
