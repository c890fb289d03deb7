package stock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
	"github.com/athulkrishnap25/expanse-tracker/internal/store/memory"
)

func newStore(t *testing.T, policy store.StockPolicy, stock map[string]int) *memory.Store {
	t.Helper()
	s := memory.New(policy, zerolog.Nop())
	for id, qty := range stock {
		_, err := s.CreateProduct(context.Background(), domain.Product{
			ID:            id,
			ProductName:   id,
			CostPrice:     decimal.NewFromInt(1),
			SellingPrice:  decimal.NewFromInt(2),
			StockQuantity: qty,
		})
		require.NoError(t, err)
	}
	return s
}

func stockOf(t *testing.T, s *memory.Store, id string) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func saleOf(items ...domain.SaleLineItem) domain.Sale {
	return domain.Sale{ID: "sale-1", Items: items}
}

func item(id string, qty int) domain.SaleLineItem {
	return domain.SaleLineItem{ProductID: id, ProductName: id, Quantity: qty}
}

func TestOnSaleCreatedDecrementsStock(t *testing.T) {
	s := newStore(t, store.StockAllowNegative, map[string]int{"p1": 10})
	r := NewReactor(s, zerolog.Nop())

	require.NoError(t, r.OnSaleCreated(context.Background(), saleOf(item("p1", 2))))
	assert.Equal(t, 8, stockOf(t, s, "p1"))
}

func TestOnSaleCreatedAppliesEveryLine(t *testing.T) {
	s := newStore(t, store.StockAllowNegative, map[string]int{"p1": 10, "p2": 7, "p3": 1})
	r := NewReactor(s, zerolog.Nop())

	err := r.OnSaleCreated(context.Background(), saleOf(item("p1", 3), item("p2", 7), item("p3", 2)))
	require.NoError(t, err)
	assert.Equal(t, 7, stockOf(t, s, "p1"))
	assert.Equal(t, 0, stockOf(t, s, "p2"))
	assert.Equal(t, -1, stockOf(t, s, "p3"))
}

func TestOnSaleCreatedRejectLeavesStockUntouched(t *testing.T) {
	s := newStore(t, store.StockRejectNegative, map[string]int{"a": 10, "b": 3})
	r := NewReactor(s, zerolog.Nop())

	err := r.OnSaleCreated(context.Background(), saleOf(item("a", 2), item("b", 50)))
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Equal(t, 10, stockOf(t, s, "a"))
	assert.Equal(t, 3, stockOf(t, s, "b"))
}

func TestOnSaleCreatedEmptySaleIsNoop(t *testing.T) {
	batcher := &recordingBatcher{}
	r := NewReactor(batcher, zerolog.Nop())

	require.NoError(t, r.OnSaleCreated(context.Background(), domain.Sale{ID: "empty"}))
	assert.Zero(t, batcher.created)
}

func TestOnSaleCreatedUnknownProductDoesNotAbort(t *testing.T) {
	s := newStore(t, store.StockAllowNegative, map[string]int{"p1": 4})
	r := NewReactor(s, zerolog.Nop())

	require.NoError(t, r.OnSaleCreated(context.Background(), saleOf(item("gone", 1), item("p1", 1))))
	assert.Equal(t, 3, stockOf(t, s, "p1"))
}

func TestOnSaleCreatedReportsCommitFailureOnce(t *testing.T) {
	boom := errors.New("store unavailable")
	batcher := &recordingBatcher{commitErr: boom}
	r := NewReactor(batcher, zerolog.Nop())

	err := r.OnSaleCreated(context.Background(), saleOf(item("p1", 1), item("p2", 4)))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, batcher.created)
	assert.Equal(t, 1, batcher.commits)
	assert.Equal(t, []int{-1, -4}, batcher.deltas)
}

func TestConcurrentSalesCommute(t *testing.T) {
	s := newStore(t, store.StockAllowNegative, map[string]int{"p1": 100})
	r := NewReactor(s, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			assert.NoError(t, r.OnSaleCreated(context.Background(), saleOf(item("p1", qty%3+1))))
		}(i)
	}
	wg.Wait()

	// 20 sales with quantities cycling 2,3,1 sum to 41.
	assert.Equal(t, 59, stockOf(t, s, "p1"))
}

type recordingBatcher struct {
	mu        sync.Mutex
	commitErr error
	created   int
	commits   int
	deltas    []int
}

func (b *recordingBatcher) NewStockBatch() store.StockBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	return &recordingBatch{parent: b}
}

type recordingBatch struct {
	parent *recordingBatcher
	n      int
}

func (b *recordingBatch) IncrementStock(_ string, delta int) {
	b.parent.mu.Lock()
	defer b.parent.mu.Unlock()
	b.n++
	b.parent.deltas = append(b.parent.deltas, delta)
}

func (b *recordingBatch) Len() int { return b.n }

func (b *recordingBatch) Commit(_ context.Context) error {
	b.parent.mu.Lock()
	defer b.parent.mu.Unlock()
	b.parent.commits++
	return b.parent.commitErr
}
