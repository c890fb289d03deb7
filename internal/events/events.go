// Package events delivers sale-created notifications to the stock reactor,
// either in-process or through a Redis list.
package events

import (
	"context"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
)

// SaleHandler reacts to a newly persisted sale.
type SaleHandler interface {
	OnSaleCreated(ctx context.Context, sale domain.Sale) error
}

// Dispatcher hands a persisted sale to whatever reacts to it. Publish returns
// once the sale has been handed off, not necessarily once it has been handled.
type Dispatcher interface {
	Publish(ctx context.Context, sale domain.Sale) error
}

// Inline calls the handler on the caller's goroutine.
type Inline struct {
	Handler SaleHandler
}

func (d Inline) Publish(ctx context.Context, sale domain.Sale) error {
	if d.Handler == nil {
		return nil
	}
	return d.Handler.OnSaleCreated(ctx, sale)
}

// Noop drops every sale. Used when stock tracking is handled elsewhere.
type Noop struct{}

func (Noop) Publish(_ context.Context, _ domain.Sale) error { return nil }
