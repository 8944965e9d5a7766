// Package ports declares the storage interfaces the services depend on.
//
// Lookups that find nothing return core.ErrNotFound. Mutations return the
// number of affected rows so callers can tell "not yours" from success.
package ports

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.NewUser) (int64, error)
		GetUser(ctx context.Context, userID int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		GetUserByGoogleID(ctx context.Context, googleID string) (core.User, error)
		TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
		UpdateUserProfile(ctx context.Context, userID int64, p core.ProfilePatch) (int64, error)
	}

	TrackerStore interface {
		CreateTracker(ctx context.Context, userID int64, in core.TrackerInput, isDefault bool) (int64, error)
		CountActiveTrackers(ctx context.Context, userID int64) (int64, error)
		GetTracker(ctx context.Context, userID, trackerID int64) (core.Tracker, error)
		ListTrackers(ctx context.Context, userID int64, activeOnly bool) ([]core.Tracker, error)
		GetDefaultTracker(ctx context.Context, userID int64) (core.Tracker, error)
		// GetEarliestActiveTracker skips excludeID; pass 0 to consider all trackers.
		GetEarliestActiveTracker(ctx context.Context, userID, excludeID int64) (core.Tracker, error)
		ClearDefaultTrackers(ctx context.Context, userID int64) error
		MarkTrackerDefault(ctx context.Context, userID, trackerID int64) (int64, error)
		DeactivateTracker(ctx context.Context, userID, trackerID int64) (int64, error)
		UpdateTracker(ctx context.Context, userID, trackerID int64, p core.TrackerPatch) (int64, error)
		ListActiveTrackerScopes(ctx context.Context) ([]core.Scope, error)
	}

	SessionStore interface {
		CreateSession(ctx context.Context, s core.Session) error
		GetSession(ctx context.Context, token string) (core.Session, error)
		SetSessionTracker(ctx context.Context, token string, trackerID int64) (int64, error)
		DeleteSession(ctx context.Context, token string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		// GetCategory returns a system category or one owned by userID.
		GetCategory(ctx context.Context, userID, categoryID int64) (core.Category, error)
		CreateCategory(ctx context.Context, userID int64, in core.CategoryInput) (int64, error)
	}

	IncomeSourceStore interface {
		CreateIncomeSource(ctx context.Context, scope core.Scope, in core.IncomeSourceInput) (int64, error)
		ListIncomeSources(ctx context.Context, scope core.Scope, activeOnly bool) ([]core.IncomeSource, error)
		GetIncomeSource(ctx context.Context, scope core.Scope, sourceID int64) (core.IncomeSource, error)
		UpdateIncomeSource(ctx context.Context, scope core.Scope, sourceID int64, p core.IncomeSourcePatch) (int64, error)
		DeleteIncomeSource(ctx context.Context, scope core.Scope, sourceID int64) (int64, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, scope core.Scope, in core.BudgetInput) (int64, error)
		ListBudgets(ctx context.Context, scope core.Scope, isActive *bool) ([]core.Budget, error)
		GetBudget(ctx context.Context, userID, budgetID int64) (core.Budget, error)
		UpdateBudget(ctx context.Context, userID, budgetID int64, p core.BudgetPatch) (int64, error)
		DeleteBudget(ctx context.Context, userID, budgetID int64) (int64, error)
		SumExpenses(ctx context.Context, q core.SpendQuery) (core.Money, error)
	}

	LedgerStore interface {
		CreateExpense(ctx context.Context, scope core.Scope, in core.ExpenseInput) (int64, error)
		CreateIncome(ctx context.Context, scope core.Scope, in core.IncomeInput) (int64, error)
		ListExpenses(ctx context.Context, scope core.Scope, f core.LedgerFilter) ([]core.Expense, error)
		ListIncome(ctx context.Context, scope core.Scope, f core.LedgerFilter) ([]core.Income, error)
		GetExpense(ctx context.Context, userID, transactionID int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, userID, transactionID int64, p core.ExpensePatch) (int64, error)
		UpdateIncome(ctx context.Context, userID, transactionID int64, p core.IncomePatch) (int64, error)
		DeleteExpense(ctx context.Context, userID, transactionID int64) (int64, error)
		DeleteIncome(ctx context.Context, userID, transactionID int64) (int64, error)
	}

	ReportStore interface {
		ExpenseTotalsByCategory(ctx context.Context, scope core.Scope, from, to core.Date) ([]core.CategoryAggregate, error)
		IncomeTotalsBySource(ctx context.Context, scope core.Scope, from, to core.Date) ([]core.SourceAggregate, error)
		SumIncome(ctx context.Context, scope core.Scope, from, to core.Date) (core.Money, error)
		// Monthly totals are keyed by "YYYY-MM".
		MonthlyExpenseTotals(ctx context.Context, scope core.Scope, from, to core.Date) (map[string]core.Money, error)
		MonthlyIncomeTotals(ctx context.Context, scope core.Scope, from, to core.Date) (map[string]core.Money, error)
	}

	AlertStore interface {
		UpsertBudgetAlert(ctx context.Context, a core.BudgetAlert) error
		DeleteBudgetAlert(ctx context.Context, budgetID int64) error
		ListBudgetAlerts(ctx context.Context, scope core.Scope) ([]core.BudgetAlert, error)
	}

	// Store is everything a single connection or transaction can do.
	Store interface {
		UserStore
		TrackerStore
		SessionStore
		CategoryStore
		IncomeSourceStore
		BudgetStore
		LedgerStore
		ReportStore
		AlertStore
	}

	// TxRunner runs fn inside one database transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	TxRunner interface {
		InTx(ctx context.Context, fn func(Store) error) error
	}

	// Repository is a Store that can also open transactions.
	Repository interface {
		Store
		TxRunner
		Ping(ctx context.Context) error
	}
)
