package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/finance"
)

// Dashboard compares month-to-date figures against the whole previous month
// and adds the current low-stock count and this month's trend. The profit
// change is on gross profit (revenue minus cost of goods). All store reads run
// concurrently.
func (s *Service) Dashboard(ctx context.Context) (domain.DashboardSummary, error) {
	now := s.clock()
	thisMonth, lastMonth := finance.MonthWindow(now)

	var (
		thisSales, lastSales       []domain.Sale
		thisExpenses, lastExpenses []domain.Expense
		products                   []domain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		thisSales, err = s.repo.ListSales(gctx, thisMonth.Start, thisMonth.End)
		return err
	})
	g.Go(func() (err error) {
		thisExpenses, err = s.repo.ListExpensesBetween(gctx, thisMonth.Start, thisMonth.End)
		return err
	})
	g.Go(func() (err error) {
		lastSales, err = s.repo.ListSales(gctx, lastMonth.Start, lastMonth.End)
		return err
	})
	g.Go(func() (err error) {
		lastExpenses, err = s.repo.ListExpensesBetween(gctx, lastMonth.Start, lastMonth.End)
		return err
	})
	g.Go(func() (err error) {
		products, err = s.repo.ListProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.DashboardSummary{}, fmt.Errorf("load dashboard data: %w", err)
	}

	current := finance.Aggregate(thisSales, thisExpenses)
	previous := finance.Aggregate(lastSales, lastExpenses)

	return domain.DashboardSummary{
		ThisMonth:      current,
		LastMonth:      previous,
		RevenueChange:  finance.ChangePct(current.TotalRevenue, previous.TotalRevenue),
		ProfitChange:   finance.ChangePct(current.GrossProfit, previous.GrossProfit),
		ExpensesChange: finance.ChangePct(current.TotalExpenses, previous.TotalExpenses),
		LowStockCount:  finance.CountLowStock(products),
		Trend:          finance.BuildTrend(thisMonth.Start, now, thisSales),
		GeneratedAt:    now,
	}, nil
}

// Report aggregates sales and expenses between two calendar dates. The end
// date is included up to its last nanosecond.
func (s *Service) Report(ctx context.Context, startDate string, endDate string) (domain.Report, error) {
	start, err := s.parseDate("start", startDate)
	if err != nil {
		return domain.Report{}, err
	}
	end, err := s.parseDate("end", endDate)
	if err != nil {
		return domain.Report{}, err
	}
	window, err := s.dateRange(start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return domain.Report{}, err
	}

	agg, err := s.aggregate(ctx, window)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.Report{Start: window.Start, End: window.End, PeriodAggregate: agg}, nil
}

func (s *Service) aggregate(ctx context.Context, window finance.Window) (domain.PeriodAggregate, error) {
	var (
		sales    []domain.Sale
		expenses []domain.Expense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sales, err = s.repo.ListSales(gctx, window.Start, window.End)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.repo.ListExpensesBetween(gctx, window.Start, window.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PeriodAggregate{}, fmt.Errorf("aggregate %s..%s: %w", window.Start.Format(dateLayout), window.End.Format(dateLayout), err)
	}
	return finance.Aggregate(sales, expenses), nil
}
