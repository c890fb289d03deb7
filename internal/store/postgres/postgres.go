package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
	"github.com/athulkrishnap25/expanse-tracker/internal/xid"
)

type Store struct {
	pool   *pgxpool.Pool
	policy store.StockPolicy
	log    zerolog.Logger
}

func New(ctx context.Context, databaseURL string, policy store.StockPolicy, logger zerolog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = 30
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if policy == "" {
		policy = store.StockAllowNegative
	}
	return &Store{
		pool:   pool,
		policy: policy,
		log:    logger.With().Str("component", "postgres-store").Logger(),
	}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const productColumns = `id, product_name, cost_price, selling_price, stock_quantity, low_stock_threshold, created_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.ProductName, &p.CostPrice, &p.SellingPrice, &p.StockQuantity, &p.LowStockThreshold, &p.CreatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, err
}

func (s *Store) queryProducts(ctx context.Context, sql string, args ...any) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY lower(product_name), id
	`)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) SearchProducts(ctx context.Context, prefix string, limit int) ([]domain.Product, error) {
	if limit < 1 {
		limit = 10
	}
	pattern := likeEscaper.Replace(strings.ToLower(strings.TrimSpace(prefix))) + "%"
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE lower(product_name) LIKE $1 ESCAPE '\'
		ORDER BY lower(product_name), id
		LIMIT $2
	`, pattern, limit)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, product.ID, product.ProductName, product.CostPrice, product.SellingPrice, product.StockQuantity, product.LowStockThreshold, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.Invalid("product %s already exists", product.ID)
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product, stockQuantity *int) (*domain.Product, error) {
	updated, err := scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products
		SET product_name = $2, cost_price = $3, selling_price = $4,
		    stock_quantity = COALESCE($5::integer, stock_quantity), low_stock_threshold = $6
		WHERE id = $1
		RETURNING `+productColumns,
		product.ID, product.ProductName, product.CostPrice, product.SellingPrice, stockQuantity, product.LowStockThreshold))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	items := sale.Items
	if items == nil {
		items = []domain.SaleLineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode sale items: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sales (id, sale_date, items, total_amount, cost_of_goods, discount, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, sale.ID, sale.SaleDate, payload, sale.TotalAmount, sale.CostOfGoods, sale.Discount, sale.RecordedBy)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, from time.Time, to time.Time) ([]domain.Sale, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sale_date, items, total_amount, cost_of_goods, discount, recorded_by
		FROM sales
		WHERE sale_date >= $1 AND sale_date <= $2
		ORDER BY sale_date, id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	for rows.Next() {
		var (
			sale    domain.Sale
			payload []byte
		)
		if err := rows.Scan(&sale.ID, &sale.SaleDate, &payload, &sale.TotalAmount, &sale.CostOfGoods, &sale.Discount, &sale.RecordedBy); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &sale.Items); err != nil {
			return nil, fmt.Errorf("decode items of sale %s: %w", sale.ID, err)
		}
		sale.SaleDate = sale.SaleDate.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

const expenseColumns = `id, description, category, amount, expense_date`

func scanExpense(row pgx.Row) (domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(&e.ID, &e.Description, &e.Category, &e.Amount, &e.ExpenseDate)
	return e, err
}

func (s *Store) queryExpenses(ctx context.Context, sql string, args ...any) ([]domain.Expense, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES ($1,$2,$3,$4,$5)
	`, expense.ID, expense.Description, expense.Category, expense.Amount, expense.ExpenseDate)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	e, err := scanExpense(s.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expenses
		SET description = $2, category = $3, amount = $4, expense_date = $5
		WHERE id = $1
	`, expense.ID, expense.Description, expense.Category, expense.Amount, expense.ExpenseDate)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, store.ErrNotFound
	}
	return &expense, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY expense_date DESC, id`)
}

func (s *Store) ListExpensesBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Expense, error) {
	return s.queryExpenses(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE expense_date >= $1 AND expense_date <= $2
	`, from, to)
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.Invalid("username and password are required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_users (username, password, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,now())
	`, username, user.Password, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.Invalid("username already exists")
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT username, password, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.Invalid("username and password are required")
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
