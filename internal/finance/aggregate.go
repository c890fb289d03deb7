package finance

import (
	"github.com/shopspring/decimal"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
)

// Aggregate sums the given sales and expenses. Callers are expected to have
// filtered both by date already. Zero-valued fields on older records count as
// zero.
func Aggregate(sales []domain.Sale, expenses []domain.Expense) domain.PeriodAggregate {
	revenue := decimal.Zero
	cogs := decimal.Zero
	for _, sale := range sales {
		revenue = revenue.Add(sale.TotalAmount)
		cogs = cogs.Add(sale.CostOfGoods)
	}

	spent := decimal.Zero
	for _, expense := range expenses {
		spent = spent.Add(expense.Amount)
	}

	gross := revenue.Sub(cogs)
	return domain.PeriodAggregate{
		TotalRevenue:     revenue,
		TotalCostOfGoods: cogs,
		TotalExpenses:    spent,
		GrossProfit:      gross,
		NetProfit:        gross.Sub(spent),
		SalesCount:       len(sales),
		ExpensesCount:    len(expenses),
	}
}

// CountLowStock counts products at or below their low-stock threshold.
func CountLowStock(products []domain.Product) int {
	n := 0
	for _, p := range products {
		if p.IsLowStock() {
			n++
		}
	}
	return n
}
