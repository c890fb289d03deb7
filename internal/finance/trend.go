package finance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
)

const (
	week = 7 * 24 * time.Hour
	// TopProductsLimit is how many products the dashboard ranks.
	TopProductsLimit = 3
)

// BuildTrend buckets a month's sales into a daily revenue series covering
// days 1 through now.Day() and a four-week revenue series per product name.
// Sales dated after week three of the month land in the last bucket. Day and
// week boundaries follow monthStart's location.
func BuildTrend(monthStart, now time.Time, sales []domain.Sale) domain.TrendSeries {
	loc := monthStart.Location()
	days := now.In(loc).Day()
	daily := make([]decimal.Decimal, days)
	for i := range daily {
		daily[i] = decimal.Zero
	}

	ranking := newRanking()
	for _, sale := range sales {
		at := sale.SaleDate.In(loc)
		if idx := at.Day() - 1; at.Year() == monthStart.Year() && at.Month() == monthStart.Month() && idx < days {
			daily[idx] = daily[idx].Add(sale.TotalAmount)
		}

		wk := weekIndex(monthStart, at)
		for _, item := range sale.Items {
			ranking.add(item.ProductName, wk, item.Revenue())
		}
	}

	return domain.TrendSeries{
		DailyTotals:   daily,
		ProductWeekly: ranking.weekly(),
		TopProducts:   TopProducts(ranking.products(), TopProductsLimit),
	}
}

func weekIndex(monthStart, at time.Time) int {
	elapsed := at.Sub(monthStart)
	if elapsed < 0 {
		return 0
	}
	return min(3, int(elapsed/week))
}

// TopProducts returns the n products with the highest total revenue. Ties keep
// their input order.
func TopProducts(products []domain.ProductRevenue, n int) []domain.ProductRevenue {
	ranked := slices.Clone(products)
	slices.SortStableFunc(ranked, func(a, b domain.ProductRevenue) int {
		return b.Total.Cmp(a.Total)
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ranking accumulates per-product weekly revenue, remembering the order in
// which product names were first seen.
type ranking struct {
	order []string
	byKey map[string]*domain.ProductRevenue
}

func newRanking() *ranking {
	return &ranking{byKey: make(map[string]*domain.ProductRevenue)}
}

func (r *ranking) add(name string, wk int, amount decimal.Decimal) {
	entry, ok := r.byKey[name]
	if !ok {
		entry = &domain.ProductRevenue{ProductName: name, Total: decimal.Zero}
		for i := range entry.Weekly {
			entry.Weekly[i] = decimal.Zero
		}
		r.byKey[name] = entry
		r.order = append(r.order, name)
	}
	entry.Weekly[wk] = entry.Weekly[wk].Add(amount)
	entry.Total = entry.Total.Add(amount)
}

func (r *ranking) products() []domain.ProductRevenue {
	out := make([]domain.ProductRevenue, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.byKey[name])
	}
	return out
}

func (r *ranking) weekly() map[string][4]decimal.Decimal {
	out := make(map[string][4]decimal.Decimal, len(r.order))
	for _, name := range r.order {
		out[name] = r.byKey[name].Weekly
	}
	return out
}
