package services

import (
	"context"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// LedgerService records income and expense transactions.
type LedgerService struct {
	store  ports.Store
	events BudgetCheckPublisher
	now    Clock
}

func NewLedgerService(store ports.Store, events BudgetCheckPublisher, now Clock) *LedgerService {
	if now == nil {
		now = systemClock
	}
	return &LedgerService{store: store, events: events, now: now}
}

func (s *LedgerService) checkCategory(ctx context.Context, userID int64, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, userID, *id); err != nil {
		return lookupErr("Category", "get category", err)
	}
	return nil
}

// checkSource requires the source to belong to the scope's tracker.
func (s *LedgerService) checkSource(ctx context.Context, scope core.Scope, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := s.store.GetIncomeSource(ctx, scope, *id); err != nil {
		return lookupErr("Income source", "get income source", err)
	}
	return nil
}

func (s *LedgerService) AddExpense(ctx context.Context, scope core.Scope, in core.ExpenseInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	in = in.WithDefaults()
	if err := s.checkCategory(ctx, scope.UserID, in.CategoryID.Value); err != nil {
		return 0, err
	}

	id, err := s.store.CreateExpense(ctx, scope, in)
	if err != nil {
		return 0, storageErr("create expense", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"user_id", scope.UserID,
		"tracker_id", scope.TrackerID,
		"transaction_id", id,
		"amount_cents", in.Amount.Cents)

	publishBudgetCheck(ctx, s.events, scope, "expense_created")
	return id, nil
}

func (s *LedgerService) AddIncome(ctx context.Context, scope core.Scope, in core.IncomeInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := s.checkSource(ctx, scope, in.SourceID.Value); err != nil {
		return 0, err
	}

	id, err := s.store.CreateIncome(ctx, scope, in)
	if err != nil {
		return 0, storageErr("create income", err)
	}

	slog.InfoContext(ctx, "Income recorded",
		"user_id", scope.UserID,
		"tracker_id", scope.TrackerID,
		"transaction_id", id,
		"amount_cents", in.Amount.Cents)
	return id, nil
}

func (s *LedgerService) ListExpenses(ctx context.Context, scope core.Scope, f core.LedgerFilter) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, scope, f)
	if err != nil {
		return nil, storageErr("list expenses", err)
	}
	return expenses, nil
}

func (s *LedgerService) ListIncome(ctx context.Context, scope core.Scope, f core.LedgerFilter) ([]core.Income, error) {
	income, err := s.store.ListIncome(ctx, scope, f)
	if err != nil {
		return nil, storageErr("list income", err)
	}
	return income, nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, scope core.Scope, id int64, p core.ExpensePatch) error {
	if p.IsEmpty() {
		return core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.checkCategory(ctx, scope.UserID, p.CategoryID.Value); err != nil {
		return err
	}

	// the budget check goes to the tracker that owns the row
	e, err := s.store.GetExpense(ctx, scope.UserID, id)
	if err != nil {
		return lookupErr("Expense", "get expense", err)
	}

	n, err := s.store.UpdateExpense(ctx, scope.UserID, id, p)
	if err != nil {
		return storageErr("update expense", err)
	}
	if err := affected("Expense", n); err != nil {
		return err
	}

	publishBudgetCheck(ctx, s.events, core.Scope{UserID: e.UserID, TrackerID: e.TrackerID}, "expense_updated")
	return nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, scope core.Scope, id int64, p core.IncomePatch) error {
	if p.IsEmpty() {
		return core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.checkSource(ctx, scope, p.SourceID.Value); err != nil {
		return err
	}

	n, err := s.store.UpdateIncome(ctx, scope.UserID, id, p)
	if err != nil {
		return storageErr("update income", err)
	}
	return affected("Income", n)
}

func (s *LedgerService) DeleteExpense(ctx context.Context, scope core.Scope, id int64) error {
	e, err := s.store.GetExpense(ctx, scope.UserID, id)
	if err != nil {
		return lookupErr("Expense", "get expense", err)
	}

	n, err := s.store.DeleteExpense(ctx, scope.UserID, id)
	if err != nil {
		return storageErr("delete expense", err)
	}
	if err := affected("Expense", n); err != nil {
		return err
	}

	publishBudgetCheck(ctx, s.events, core.Scope{UserID: e.UserID, TrackerID: e.TrackerID}, "expense_deleted")
	return nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, scope core.Scope, id int64) error {
	n, err := s.store.DeleteIncome(ctx, scope.UserID, id)
	if err != nil {
		return storageErr("delete income", err)
	}
	return affected("Income", n)
}

// Summary totals income and expenses over [start, end], by default the
// current calendar month.
func (s *LedgerService) Summary(ctx context.Context, scope core.Scope, start, end *core.Date) (core.Summary, error) {
	from, to, err := dateRange(s.now, start, end)
	if err != nil {
		return core.Summary{}, err
	}

	income, err := s.store.SumIncome(ctx, scope, from, to)
	if err != nil {
		return core.Summary{}, storageErr("sum income", err)
	}
	expenses, err := s.store.SumExpenses(ctx, core.SpendQuery{
		UserID:    scope.UserID,
		TrackerID: scope.TrackerID,
		From:      from,
		To:        to,
	})
	if err != nil {
		return core.Summary{}, storageErr("sum expenses", err)
	}
	byCategory, err := s.store.ExpenseTotalsByCategory(ctx, scope, from, to)
	if err != nil {
		return core.Summary{}, storageErr("expenses by category", err)
	}

	return core.Summary{
		StartDate:          from,
		EndDate:            to,
		TotalIncome:        income,
		TotalExpenses:      expenses,
		NetSavings:         income.Sub(expenses),
		ExpensesByCategory: byCategory,
	}, nil
}
