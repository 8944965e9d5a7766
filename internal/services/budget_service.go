package services

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// BudgetService computes live spending against budgets.
type BudgetService struct {
	store  ports.Store
	events BudgetCheckPublisher
	now    Clock
}

func NewBudgetService(store ports.Store, events BudgetCheckPublisher, now Clock) *BudgetService {
	if now == nil {
		now = systemClock
	}
	return &BudgetService{store: store, events: events, now: now}
}

// GetUserBudgets lists the budgets of the scope's tracker, newest first, each
// with spent, remaining and percentage as of today.
func (s *BudgetService) GetUserBudgets(ctx context.Context, scope core.Scope, isActive *bool) ([]core.BudgetStatus, error) {
	budgets, err := s.store.ListBudgets(ctx, scope, isActive)
	if err != nil {
		return nil, storageErr("list budgets", err)
	}

	asOf := today(s.now)
	statuses := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.status(ctx, b, asOf)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (s *BudgetService) status(ctx context.Context, b core.Budget, asOf core.Date) (core.BudgetStatus, error) {
	end := asOf
	if b.EndDate != nil {
		end = *b.EndDate
	}

	spent, err := s.store.SumExpenses(ctx, core.SpendQuery{
		UserID:     b.UserID,
		TrackerID:  b.TrackerID,
		CategoryID: b.CategoryID,
		From:       b.StartDate,
		To:         end,
	})
	if err != nil {
		return core.BudgetStatus{}, storageErr("sum budget spending", err)
	}

	return core.BudgetStatus{
		Budget:     b,
		Spent:      spent,
		Remaining:  b.Amount.Sub(spent),
		Percentage: core.Percent(spent, b.Amount),
	}, nil
}

func (s *BudgetService) Get(ctx context.Context, scope core.Scope, budgetID int64) (core.BudgetStatus, error) {
	b, err := s.store.GetBudget(ctx, scope.UserID, budgetID)
	if err != nil {
		return core.BudgetStatus{}, lookupErr("Budget", "get budget", err)
	}
	return s.status(ctx, b, today(s.now))
}

func (s *BudgetService) Create(ctx context.Context, scope core.Scope, in core.BudgetInput) (core.BudgetStatus, error) {
	if err := in.Validate(); err != nil {
		return core.BudgetStatus{}, err
	}
	in = in.WithDefaults()

	if in.CategoryID.Value != nil {
		if _, err := s.store.GetCategory(ctx, scope.UserID, *in.CategoryID.Value); err != nil {
			return core.BudgetStatus{}, lookupErr("Category", "get category", err)
		}
	}

	id, err := s.store.CreateBudget(ctx, scope, in)
	if err != nil {
		return core.BudgetStatus{}, storageErr("create budget", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"user_id", scope.UserID,
		"tracker_id", scope.TrackerID,
		"budget_id", id)

	publishBudgetCheck(ctx, s.events, scope, "budget_created")
	return s.Get(ctx, scope, id)
}

func (s *BudgetService) Update(ctx context.Context, scope core.Scope, budgetID int64, p core.BudgetPatch) (core.BudgetStatus, error) {
	if p.IsEmpty() {
		return core.BudgetStatus{}, core.ErrNoFields
	}
	if err := p.Validate(); err != nil {
		return core.BudgetStatus{}, err
	}

	current, err := s.store.GetBudget(ctx, scope.UserID, budgetID)
	if err != nil {
		return core.BudgetStatus{}, lookupErr("Budget", "get budget", err)
	}

	// the date window must stay ordered against whichever bound is unchanged
	start := current.StartDate
	if p.StartDate != nil {
		start = *p.StartDate
	}
	end := current.EndDate
	if p.EndDate.Set {
		end = p.EndDate.Value
	}
	if end != nil && end.Before(start) {
		return core.BudgetStatus{}, core.ValidationError("End date must not be before start date")
	}

	n, err := s.store.UpdateBudget(ctx, scope.UserID, budgetID, p)
	if err != nil {
		return core.BudgetStatus{}, storageErr("update budget", err)
	}
	if err := affected("Budget", n); err != nil {
		return core.BudgetStatus{}, err
	}

	publishBudgetCheck(ctx, s.events, core.Scope{UserID: current.UserID, TrackerID: current.TrackerID}, "budget_updated")
	return s.Get(ctx, scope, budgetID)
}

func (s *BudgetService) Delete(ctx context.Context, scope core.Scope, budgetID int64) error {
	n, err := s.store.DeleteBudget(ctx, scope.UserID, budgetID)
	if err != nil {
		return storageErr("delete budget", err)
	}
	return affected("Budget", n)
}
