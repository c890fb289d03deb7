package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError carries a user-visible message and matches ErrInvalidInput.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StockPolicy decides what a stock batch does when a product would go below zero.
type StockPolicy string

const (
	StockAllowNegative  StockPolicy = "allow"
	StockRejectNegative StockPolicy = "reject"
)

// StockBatch buffers stock deltas and applies all of them, or none, on Commit.
// Deltas are applied server-side relative to the stored value, never as a
// read-modify-write from the caller. Deltas for unknown products are skipped.
type StockBatch interface {
	IncrementStock(productID string, delta int)
	Len() int
	Commit(ctx context.Context) error
}

// StockBatcher is the slice of Repository the stock reactor needs.
type StockBatcher interface {
	NewStockBatch() StockBatch
}

type Repository interface {
	StockBatcher

	ListProducts(ctx context.Context) ([]domain.Product, error)
	SearchProducts(ctx context.Context, prefix string, limit int) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// UpdateProduct writes name, prices and threshold. Stock is only written
	// when stockQuantity is non-nil; product.StockQuantity is ignored so that
	// an edit never overwrites a concurrent stock batch.
	UpdateProduct(ctx context.Context, product domain.Product, stockQuantity *int) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	// ListSales returns sales with from <= saleDate <= to, oldest first.
	ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	GetExpense(ctx context.Context, id string) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	// ListExpensesBetween returns expenses with from <= expenseDate <= to.
	ListExpensesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
