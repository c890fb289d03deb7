package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

type stockDelta struct {
	productID string
	delta     int
}

// stockBatch sends every delta in one round trip inside one transaction. Each
// update is relative to the stored value, so concurrent batches commute.
type stockBatch struct {
	store     *Store
	deltas    []stockDelta
	committed bool
}

func (s *Store) NewStockBatch() store.StockBatch {
	return &stockBatch{store: s}
}

func (b *stockBatch) IncrementStock(productID string, delta int) {
	b.deltas = append(b.deltas, stockDelta{productID: productID, delta: delta})
}

func (b *stockBatch) Len() int {
	return len(b.deltas)
}

func (b *stockBatch) Commit(ctx context.Context) error {
	if b.committed {
		return fmt.Errorf("stock batch already committed")
	}
	b.committed = true
	if len(b.deltas) == 0 {
		return nil
	}

	s := b.store
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin stock transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, d := range b.deltas {
		batch.Queue(`
			UPDATE products
			SET stock_quantity = stock_quantity + $2
			WHERE id = $1
			RETURNING stock_quantity
		`, d.productID, d.delta)
	}

	if err := b.readResults(tx.SendBatch(ctx, batch)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit stock transaction: %w", err)
	}
	return nil
}

func (b *stockBatch) readResults(results pgx.BatchResults) error {
	defer results.Close()

	for _, d := range b.deltas {
		var qty int
		err := results.QueryRow().Scan(&qty)
		if errors.Is(err, pgx.ErrNoRows) {
			b.store.log.Warn().Str("product_id", d.productID).Msg("stock delta for unknown product skipped")
			continue
		}
		if err != nil {
			return fmt.Errorf("apply stock delta for %s: %w", d.productID, err)
		}
		if b.store.policy == store.StockRejectNegative && qty < 0 {
			return fmt.Errorf("product %s would reach %d: %w", d.productID, qty, store.ErrInsufficientStock)
		}
	}
	return results.Close()
}
