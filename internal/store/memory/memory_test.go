package memory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

func seedProduct(t *testing.T, s *Store, id string, name string, stock int) {
	t.Helper()
	_, err := s.CreateProduct(context.Background(), domain.Product{
		ID:            id,
		ProductName:   name,
		CostPrice:     decimal.NewFromInt(10),
		SellingPrice:  decimal.NewFromInt(15),
		StockQuantity: stock,
	})
	require.NoError(t, err)
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestStockBatchAppliesAllDeltas(t *testing.T) {
	s := New(store.StockAllowNegative, zerolog.Nop())
	seedProduct(t, s, "p1", "rice", 10)
	seedProduct(t, s, "p2", "oil", 4)

	batch := s.NewStockBatch()
	batch.IncrementStock("p1", -2)
	batch.IncrementStock("p2", -1)
	batch.IncrementStock("p1", -3)
	require.Equal(t, 3, batch.Len())
	require.NoError(t, batch.Commit(context.Background()))

	assert.Equal(t, 5, stockOf(t, s, "p1"))
	assert.Equal(t, 3, stockOf(t, s, "p2"))
}

func TestStockBatchAllowsNegativeByDefault(t *testing.T) {
	s := New("", zerolog.Nop())
	seedProduct(t, s, "p1", "rice", 1)

	batch := s.NewStockBatch()
	batch.IncrementStock("p1", -4)
	require.NoError(t, batch.Commit(context.Background()))

	assert.Equal(t, -3, stockOf(t, s, "p1"))
}

func TestStockBatchRejectPolicyIsAllOrNothing(t *testing.T) {
	s := New(store.StockRejectNegative, zerolog.Nop())
	seedProduct(t, s, "p1", "rice", 10)
	seedProduct(t, s, "p2", "oil", 3)

	batch := s.NewStockBatch()
	batch.IncrementStock("p1", -2)
	batch.IncrementStock("p2", -50)
	err := batch.Commit(context.Background())
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	assert.Equal(t, 10, stockOf(t, s, "p1"))
	assert.Equal(t, 3, stockOf(t, s, "p2"))
}

func TestStockBatchSkipsUnknownProduct(t *testing.T) {
	s := New(store.StockAllowNegative, zerolog.Nop())
	seedProduct(t, s, "p1", "rice", 10)

	batch := s.NewStockBatch()
	batch.IncrementStock("ghost", -1)
	batch.IncrementStock("p1", -1)
	require.NoError(t, batch.Commit(context.Background()))

	assert.Equal(t, 9, stockOf(t, s, "p1"))
}

func TestStockBatchCommitsOnce(t *testing.T) {
	s := New(store.StockAllowNegative, zerolog.Nop())
	seedProduct(t, s, "p1", "rice", 10)

	batch := s.NewStockBatch()
	batch.IncrementStock("p1", -1)
	require.NoError(t, batch.Commit(context.Background()))
	require.Error(t, batch.Commit(context.Background()))

	assert.Equal(t, 9, stockOf(t, s, "p1"))
}

func TestSearchProductsIsCaseInsensitivePrefix(t *testing.T) {
	s := New(store.StockAllowNegative, zerolog.Nop())
	seedProduct(t, s, "p1", "Sugar 1kg", 10)
	seedProduct(t, s, "p2", "sunflower oil", 10)
	seedProduct(t, s, "p3", "rice", 10)

	got, err := s.SearchProducts(context.Background(), "SU", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sugar 1kg", got[0].ProductName)
	assert.Equal(t, "sunflower oil", got[1].ProductName)

	got, err = s.SearchProducts(context.Background(), "su", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListSalesBoundsAreInclusive(t *testing.T) {
	s := New(store.StockAllowNegative, zerolog.Nop())
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	for _, at := range []time.Time{start.Add(-time.Second), start, end, end.Add(time.Second)} {
		_, err := s.CreateSale(ctx, domain.Sale{SaleDate: at, TotalAmount: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	sales, err := s.ListSales(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.True(t, sales[0].SaleDate.Equal(start))
	assert.True(t, sales[1].SaleDate.Equal(end))
}

func TestSeededStoreHasAdmin(t *testing.T) {
	t.Setenv("SEED_ADMIN_PASSWORD", "seed-pass")
	s := NewSeeded(store.StockAllowNegative, zerolog.Nop())

	users, err := s.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Username)
	assert.NotEqual(t, "seed-pass", users[0].Password)

	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, products)
}

func TestUpdateProductKeepsStockUnlessGiven(t *testing.T) {
	s := New(store.StockAllowNegative, zerolog.Nop())
	seedProduct(t, s, "p1", "rice", 10)
	ctx := context.Background()

	edit, err := s.GetProduct(ctx, "p1")
	require.NoError(t, err)

	batch := s.NewStockBatch()
	batch.IncrementStock("p1", -3)
	require.NoError(t, batch.Commit(ctx))

	edit.ProductName = "basmati rice"
	updated, err := s.UpdateProduct(ctx, *edit, nil)
	require.NoError(t, err)
	assert.Equal(t, "basmati rice", updated.ProductName)
	assert.Equal(t, 7, updated.StockQuantity)
	assert.Equal(t, 7, stockOf(t, s, "p1"))

	restock := 25
	updated, err = s.UpdateProduct(ctx, *edit, &restock)
	require.NoError(t, err)
	assert.Equal(t, 25, updated.StockQuantity)

	_, err = s.UpdateProduct(ctx, domain.Product{ID: "missing"}, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStockBatchLogsUnknownProductThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	s := New(store.StockAllowNegative, zerolog.New(&buf))
	seedProduct(t, s, "p1", "rice", 10)

	batch := s.NewStockBatch()
	batch.IncrementStock("ghost", -1)
	batch.IncrementStock("p1", -1)
	require.NoError(t, batch.Commit(context.Background()))

	assert.Equal(t, 9, stockOf(t, s, "p1"))
	assert.Contains(t, buf.String(), `"component":"memory-store"`)
	assert.Contains(t, buf.String(), `"product_id":"ghost"`)
}
