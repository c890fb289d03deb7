package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
	"github.com/athulkrishnap25/expanse-tracker/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	policy          store.StockPolicy
	products        map[string]domain.Product
	sales           []domain.Sale
	expensesByID    map[string]domain.Expense
	usersByUsername map[string]domain.UserAccount
	log             zerolog.Logger
}

func New(policy store.StockPolicy, logger zerolog.Logger) *Store {
	if policy == "" {
		policy = store.StockAllowNegative
	}
	return &Store{
		policy:          policy,
		products:        make(map[string]domain.Product),
		sales:           make([]domain.Sale, 0, 64),
		expensesByID:    make(map[string]domain.Expense),
		usersByUsername: make(map[string]domain.UserAccount),
		log:             logger.With().Str("component", "memory-store").Logger(),
	}
}

// NewSeeded returns a store with demo products and a single admin account for
// dev mode. The admin password comes from SEED_ADMIN_PASSWORD.
func NewSeeded(policy store.StockPolicy, logger zerolog.Logger) *Store {
	s := New(policy, logger)
	now := time.Now().UTC()
	for _, p := range []struct {
		name    string
		cost    int64
		selling int64
		stock   int
	}{
		{"basmati rice 5kg", 520, 640, 40},
		{"sunflower oil 1l", 135, 165, 60},
		{"toor dal 1kg", 118, 150, 35},
		{"tea powder 500g", 210, 260, 25},
		{"sugar 1kg", 42, 50, 80},
		{"detergent 1kg", 95, 125, 18},
		{"toothpaste 150g", 68, 89, 4},
		{"biscuits family pack", 55, 70, 3},
	} {
		id := xid.New("prod")
		s.products[id] = domain.Product{
			ID:            id,
			ProductName:   p.name,
			CostPrice:     decimal.NewFromInt(p.cost),
			SellingPrice:  decimal.NewFromInt(p.selling),
			StockQuantity: p.stock,
			CreatedAt:     now,
		}
	}
	s.usersByUsername = s.seedUsers(now)
	return s
}

func (s *Store) seedUsers(now time.Time) map[string]domain.UserAccount {
	adminPwd := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPwd == "" {
		adminPwd = "admin123"
		s.log.Warn().Msg("using default dev credentials, set SEED_ADMIN_PASSWORD to override")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error().Err(err).Msg("seed admin not created, password could not be hashed")
		return make(map[string]domain.UserAccount)
	}
	return map[string]domain.UserAccount{
		"admin": {Username: "admin", Password: string(hash), Active: true, CreatedAt: now},
	}
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, cloneProduct(p))
	}
	sortProducts(products)
	return products, nil
}

func (s *Store) SearchProducts(_ context.Context, prefix string, limit int) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	matches := make([]domain.Product, 0, limit)
	for _, p := range s.products {
		if strings.HasPrefix(strings.ToLower(p.ProductName), prefix) {
			matches = append(matches, cloneProduct(p))
		}
	}
	sortProducts(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if _, exists := s.products[product.ID]; exists {
		return nil, store.Invalid("product %s already exists", product.ID)
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	s.products[product.ID] = cloneProduct(product)
	out := cloneProduct(product)
	return &out, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product, stockQuantity *int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.StockQuantity = existing.StockQuantity
	if stockQuantity != nil {
		product.StockQuantity = *stockQuantity
	}
	s.products[product.ID] = cloneProduct(product)
	out := cloneProduct(product)
	return &out, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	s.sales = append(s.sales, cloneSale(sale))
	out := cloneSale(sale)
	return &out, nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.SaleDate.Before(from) || sale.SaleDate.After(to) {
			continue
		}
		out = append(out, cloneSale(sale))
	}
	slices.SortStableFunc(out, func(a, b domain.Sale) int {
		return a.SaleDate.Compare(b.SaleDate)
	})
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	s.expensesByID[expense.ID] = expense
	return &expense, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, ok := s.expensesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &expense, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expensesByID[expense.ID]; !ok {
		return nil, store.ErrNotFound
	}
	s.expensesByID[expense.ID] = expense
	return &expense, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expensesByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expensesByID))
	for _, expense := range s.expensesByID {
		out = append(out, expense)
	}
	return out, nil
}

func (s *Store) ListExpensesBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0, len(s.expensesByID))
	for _, expense := range s.expensesByID {
		if expense.ExpenseDate.Before(from) || expense.ExpenseDate.After(to) {
			continue
		}
		out = append(out, expense)
	}
	return out, nil
}

func (s *Store) NewStockBatch() store.StockBatch {
	return &stockBatch{store: s}
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.Invalid("username and password are required")
	}
	if _, exists := s.usersByUsername[username]; exists {
		return store.Invalid("username already exists")
	}
	user.Username = username
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.ToLower(strings.TrimSpace(username))
	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

type stockDelta struct {
	productID string
	delta     int
}

type stockBatch struct {
	store     *Store
	deltas    []stockDelta
	committed bool
}

func (b *stockBatch) IncrementStock(productID string, delta int) {
	b.deltas = append(b.deltas, stockDelta{productID: productID, delta: delta})
}

func (b *stockBatch) Len() int {
	return len(b.deltas)
}

// Commit applies every delta under one write lock, so readers observe either
// none or all of them.
func (b *stockBatch) Commit(_ context.Context) error {
	if b.committed {
		return fmt.Errorf("stock batch already committed")
	}
	b.committed = true

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]int, len(b.deltas))
	for _, d := range b.deltas {
		product, ok := s.products[d.productID]
		if !ok {
			s.log.Warn().Str("product_id", d.productID).Msg("stock delta for unknown product skipped")
			continue
		}
		qty, seen := next[d.productID]
		if !seen {
			qty = product.StockQuantity
		}
		next[d.productID] = qty + d.delta
	}

	if s.policy == store.StockRejectNegative {
		for id, qty := range next {
			if qty < 0 {
				return fmt.Errorf("product %s would reach %d: %w", id, qty, store.ErrInsufficientStock)
			}
		}
	}

	for id, qty := range next {
		product := s.products[id]
		product.StockQuantity = qty
		s.products[id] = product
	}
	return nil
}

func sortProducts(products []domain.Product) {
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := strings.Compare(strings.ToLower(a.ProductName), strings.ToLower(b.ProductName)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneProduct(src domain.Product) domain.Product {
	out := src
	if src.LowStockThreshold != nil {
		threshold := *src.LowStockThreshold
		out.LowStockThreshold = &threshold
	}
	return out
}

func cloneSale(src domain.Sale) domain.Sale {
	out := src
	out.Items = append([]domain.SaleLineItem(nil), src.Items...)
	return out
}
