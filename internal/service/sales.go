package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/finance"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
	"github.com/athulkrishnap25/expanse-tracker/internal/xid"
)

// RecordSale prices the cart from current product data, stores the sale with
// frozen line item snapshots and hands it to the dispatcher for stock
// adjustment. Dispatch failures are logged and do not undo the sale.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	items, err := normalizeItems(req.Items)
	if err != nil {
		return domain.Sale{}, err
	}
	if req.Discount.IsNegative() {
		return domain.Sale{}, store.Invalid("discount cannot be negative")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("load cart products: %w", err)
	}

	subtotal := decimal.Zero
	cogs := decimal.Zero
	lines := make([]domain.SaleLineItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			return domain.Sale{}, store.Invalid("unknown product %s", item.ProductID)
		}
		if s.policy == store.StockRejectNegative && product.StockQuantity < item.Quantity {
			return domain.Sale{}, fmt.Errorf("%s has %d in stock, %d requested: %w",
				product.ProductName, product.StockQuantity, item.Quantity, store.ErrInsufficientStock)
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(product.SellingPrice.Mul(qty))
		cogs = cogs.Add(product.CostPrice.Mul(qty))
		lines = append(lines, domain.SaleLineItem{
			ProductID:         product.ID,
			ProductName:       product.ProductName,
			Quantity:          item.Quantity,
			PriceAtTimeOfSale: decimal.NewNullDecimal(product.SellingPrice),
			CostAtTimeOfSale:  decimal.NewNullDecimal(product.CostPrice),
		})
	}

	discount := decimal.Min(roundMoney(req.Discount), subtotal)
	recordedBy := ""
	if actor, ok := ActorFromContext(ctx); ok {
		recordedBy = actor.Username
	}

	created, err := s.repo.CreateSale(ctx, domain.Sale{
		ID:          xid.New("sale"),
		SaleDate:    s.now().UTC(),
		Items:       lines,
		TotalAmount: subtotal.Sub(discount),
		CostOfGoods: cogs,
		Discount:    discount,
		RecordedBy:  recordedBy,
	})
	if err != nil {
		return domain.Sale{}, fmt.Errorf("save sale: %w", err)
	}

	logger := s.log.With().Str("sale_id", created.ID).Logger()
	logger.Info().
		Str("total", created.TotalAmount.String()).
		Int("items", len(created.Items)).
		Str("recorded_by", created.RecordedBy).
		Msg("sale recorded")

	if err := s.dispatcher.Publish(ctx, *created); err != nil {
		logger.Error().Err(err).Msg("sale created event not delivered")
	}
	return *created, nil
}

// ListSales returns sales between two calendar dates, inclusive, oldest
// first. Blank dates default to the current month to date.
func (s *Service) ListSales(ctx context.Context, from string, to string) ([]domain.Sale, error) {
	window, err := s.dateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.ListSales(ctx, window.Start, window.End)
}

func (s *Service) dateRange(from string, to string) (finance.Window, error) {
	now := s.clock()
	if strings.TrimSpace(from) == "" && strings.TrimSpace(to) == "" {
		thisMonth, _ := finance.MonthWindow(now)
		return thisMonth, nil
	}
	if strings.TrimSpace(from) == "" {
		from = now.Format(dateLayout)
	}
	if strings.TrimSpace(to) == "" {
		to = now.Format(dateLayout)
	}

	start, err := s.parseDate("from", from)
	if err != nil {
		return finance.Window{}, err
	}
	end, err := s.parseDate("to", to)
	if err != nil {
		return finance.Window{}, err
	}
	if end.Before(start) {
		return finance.Window{}, store.Invalid("end date cannot be before start date")
	}
	return finance.DayWindow(start, end, s.loc), nil
}

// normalizeItems merges repeated products, keeping first-seen order.
func normalizeItems(items []domain.SaleItemRequest) ([]domain.SaleItemRequest, error) {
	if len(items) == 0 {
		return nil, store.Invalid("cart is empty")
	}

	index := make(map[string]int, len(items))
	out := make([]domain.SaleItemRequest, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return nil, store.Invalid("product_id is required for every item")
		}
		if item.Quantity < 1 {
			return nil, store.Invalid("quantity must be at least 1")
		}
		if i, seen := index[id]; seen {
			out[i].Quantity += item.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, domain.SaleItemRequest{ProductID: id, Quantity: item.Quantity})
	}
	return out, nil
}
