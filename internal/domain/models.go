package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold applies when a product has no threshold of its own.
const DefaultLowStockThreshold = 5

type Product struct {
	ID                string          `json:"id"`
	ProductName       string          `json:"product_name"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellingPrice      decimal.Decimal `json:"selling_price"`
	StockQuantity     int             `json:"stock_quantity"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (p Product) Threshold() int {
	if p.LowStockThreshold == nil {
		return DefaultLowStockThreshold
	}
	return *p.LowStockThreshold
}

func (p Product) IsLowStock() bool {
	return p.StockQuantity <= p.Threshold()
}

type ProductCreateRequest struct {
	ProductName       string           `json:"product_name"`
	CostPrice         *decimal.Decimal `json:"cost_price"`
	SellingPrice      *decimal.Decimal `json:"selling_price"`
	StockQuantity     *int             `json:"stock_quantity"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
}

type ProductUpdateRequest struct {
	ProductName       *string          `json:"product_name,omitempty"`
	CostPrice         *decimal.Decimal `json:"cost_price,omitempty"`
	SellingPrice      *decimal.Decimal `json:"selling_price,omitempty"`
	StockQuantity     *int             `json:"stock_quantity,omitempty"`
	LowStockThreshold *int             `json:"low_stock_threshold,omitempty"`
}

// SaleLineItem is a frozen copy of what was sold. Name, price and cost are
// captured at sale time and never re-read from the live Product.
type SaleLineItem struct {
	ProductID         string              `json:"product_id"`
	ProductName       string              `json:"product_name"`
	Quantity          int                 `json:"quantity"`
	PriceAtTimeOfSale decimal.NullDecimal `json:"price_at_time_of_sale"`
	CostAtTimeOfSale  decimal.NullDecimal `json:"cost_at_time_of_sale"`
	// SellingPrice is only present on records written before price snapshots existed.
	SellingPrice decimal.NullDecimal `json:"selling_price"`
}

// Revenue is unit price times quantity, falling back to the legacy selling
// price and then zero, with a missing quantity counted as one.
func (l SaleLineItem) Revenue() decimal.Decimal {
	price := decimal.Zero
	switch {
	case l.PriceAtTimeOfSale.Valid:
		price = l.PriceAtTimeOfSale.Decimal
	case l.SellingPrice.Valid:
		price = l.SellingPrice.Decimal
	}
	qty := l.Quantity
	if qty == 0 {
		qty = 1
	}
	return price.Mul(decimal.NewFromInt(int64(qty)))
}

type Sale struct {
	ID          string          `json:"id"`
	SaleDate    time.Time       `json:"sale_date"`
	Items       []SaleLineItem  `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CostOfGoods decimal.Decimal `json:"cost_of_goods"`
	Discount    decimal.Decimal `json:"discount"`
	RecordedBy  string          `json:"recorded_by"`
}

type SaleItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SaleCreateRequest struct {
	Items    []SaleItemRequest `json:"items"`
	Discount decimal.Decimal   `json:"discount"`
}

type ExpenseCategory string

const (
	ExpenseUtilities ExpenseCategory = "Utilities"
	ExpenseRent      ExpenseCategory = "Rent"
	ExpenseSalary    ExpenseCategory = "Salary"
	ExpenseMarketing ExpenseCategory = "Marketing"
	ExpenseOther     ExpenseCategory = "Other"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseUtilities, ExpenseRent, ExpenseSalary, ExpenseMarketing, ExpenseOther:
		return true
	}
	return false
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description,omitempty"`
	Category    ExpenseCategory `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseDate time.Time       `json:"expense_date"`
}

type ExpenseRequest struct {
	Description string           `json:"description"`
	Category    ExpenseCategory  `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	ExpenseDate string           `json:"expense_date"`
}

// PeriodAggregate is derived per request and never persisted.
type PeriodAggregate struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalCostOfGoods decimal.Decimal `json:"total_cost_of_goods"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	GrossProfit      decimal.Decimal `json:"gross_profit"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	SalesCount       int             `json:"sales_count"`
	ExpensesCount    int             `json:"expenses_count"`
}

type ProductRevenue struct {
	ProductName string             `json:"product_name"`
	Weekly      [4]decimal.Decimal `json:"weekly"`
	Total       decimal.Decimal    `json:"total"`
}

type TrendSeries struct {
	DailyTotals   []decimal.Decimal             `json:"daily_totals"`
	ProductWeekly map[string][4]decimal.Decimal `json:"product_weekly"`
	TopProducts   []ProductRevenue              `json:"top_products"`
}

type DashboardSummary struct {
	ThisMonth      PeriodAggregate `json:"this_month"`
	LastMonth      PeriodAggregate `json:"last_month"`
	RevenueChange  string          `json:"revenue_change"`
	ProfitChange   string          `json:"profit_change"`
	ExpensesChange string          `json:"expenses_change"`
	LowStockCount  int             `json:"low_stock_count"`
	Trend          TrendSeries     `json:"trend"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

type Report struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	PeriodAggregate
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Active    bool
	CreatedAt time.Time
}
