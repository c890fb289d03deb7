// Package stock keeps product stock in line with recorded sales.
package stock

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

// Reactor decrements stock for every line item of a newly created sale in a
// single atomic batch. It is invoked once per sale and never retries.
type Reactor struct {
	batcher store.StockBatcher
	log     zerolog.Logger
}

func NewReactor(batcher store.StockBatcher, logger zerolog.Logger) *Reactor {
	return &Reactor{
		batcher: batcher,
		log:     logger.With().Str("component", "stock").Logger(),
	}
}

// OnSaleCreated applies -quantity to each line item's product. Either every
// decrement lands or none do. A sale without items is a no-op. Unknown product
// ids are left to the store and do not abort the batch.
func (r *Reactor) OnSaleCreated(ctx context.Context, sale domain.Sale) error {
	logger := r.log.With().Str("sale_id", sale.ID).Logger()
	if len(sale.Items) == 0 {
		logger.Info().Msg("no items in sale, stock unchanged")
		return nil
	}

	batch := r.batcher.NewStockBatch()
	for _, item := range sale.Items {
		batch.IncrementStock(item.ProductID, -item.Quantity)
	}

	if err := batch.Commit(ctx); err != nil {
		logger.Error().Err(err).Int("items", batch.Len()).Msg("stock batch commit failed, stock and sales may diverge")
		return fmt.Errorf("adjust stock for sale %s: %w", sale.ID, err)
	}

	logger.Info().Int("items", batch.Len()).Msg("stock adjusted")
	return nil
}
