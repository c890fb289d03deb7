package service

import (
	"context"
	"strings"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

// ListProducts returns every product, or at most ten whose name starts with
// query when query is not blank.
func (s *Service) ListProducts(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListProducts(ctx)
	}
	return s.repo.SearchProducts(ctx, query, productSearchLimit)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.Invalid("product id is required")
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return domain.Product{}, store.Invalid("product_name is required")
	}
	if req.CostPrice == nil || req.SellingPrice == nil || req.StockQuantity == nil {
		return domain.Product{}, store.Invalid("cost_price, selling_price and stock_quantity are required")
	}
	if req.CostPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return domain.Product{}, store.Invalid("prices cannot be negative")
	}
	if req.LowStockThreshold != nil && *req.LowStockThreshold < 0 {
		return domain.Product{}, store.Invalid("low_stock_threshold cannot be negative")
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ProductName:       name,
		CostPrice:         roundMoney(*req.CostPrice),
		SellingPrice:      roundMoney(*req.SellingPrice),
		StockQuantity:     *req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		CreatedAt:         s.now().UTC(),
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.log.Info().Str("product_id", created.ID).Str("product_name", created.ProductName).Msg("product created")
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := existing
	if req.ProductName != nil {
		name := strings.TrimSpace(*req.ProductName)
		if name == "" {
			return domain.Product{}, store.Invalid("product_name cannot be blank")
		}
		updated.ProductName = name
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return domain.Product{}, store.Invalid("cost_price cannot be negative")
		}
		updated.CostPrice = roundMoney(*req.CostPrice)
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return domain.Product{}, store.Invalid("selling_price cannot be negative")
		}
		updated.SellingPrice = roundMoney(*req.SellingPrice)
	}
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return domain.Product{}, store.Invalid("low_stock_threshold cannot be negative")
		}
		threshold := *req.LowStockThreshold
		updated.LowStockThreshold = &threshold
	}

	saved, err := s.repo.UpdateProduct(ctx, updated, req.StockQuantity)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.Invalid("product id is required")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("product_id", id).Msg("product deleted")
	return nil
}
