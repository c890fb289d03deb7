package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/athulkrishnap25/expanse-tracker/internal/domain"
	"github.com/athulkrishnap25/expanse-tracker/internal/store"
)

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseRequest) (domain.Expense, error) {
	expense, err := s.expenseFromRequest(req)
	if err != nil {
		return domain.Expense{}, err
	}
	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	s.log.Info().Str("expense_id", created.ID).Str("category", string(created.Category)).Str("amount", created.Amount.String()).Msg("expense logged")
	return *created, nil
}

// UpdateExpense replaces every field of an existing expense.
func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseRequest) (domain.Expense, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Expense{}, store.Invalid("expense id is required")
	}
	if _, err := s.repo.GetExpense(ctx, id); err != nil {
		return domain.Expense{}, err
	}

	expense, err := s.expenseFromRequest(req)
	if err != nil {
		return domain.Expense{}, err
	}
	expense.ID = id
	saved, err := s.repo.UpdateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.Invalid("expense id is required")
	}
	return s.repo.DeleteExpense(ctx, id)
}

// ListExpenses returns all expenses, newest expense date first.
func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(expenses, func(a, b domain.Expense) int {
		if c := b.ExpenseDate.Compare(a.ExpenseDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return expenses, nil
}

func (s *Service) expenseFromRequest(req domain.ExpenseRequest) (domain.Expense, error) {
	category := domain.ExpenseCategory(strings.TrimSpace(string(req.Category)))
	if category == "" {
		return domain.Expense{}, store.Invalid("category is required")
	}
	if !category.Valid() {
		return domain.Expense{}, store.Invalid("category %q is not one of Utilities, Rent, Salary, Marketing, Other", category)
	}
	if req.Amount == nil {
		return domain.Expense{}, store.Invalid("amount is required")
	}
	if req.Amount.IsNegative() {
		return domain.Expense{}, store.Invalid("amount cannot be negative")
	}
	day, err := s.parseDate("expense_date", req.ExpenseDate)
	if err != nil {
		return domain.Expense{}, err
	}

	return domain.Expense{
		Description: strings.TrimSpace(req.Description),
		Category:    category,
		Amount:      roundMoney(*req.Amount),
		ExpenseDate: day,
	}, nil
}
