package services

import (
	"time"

	"fintrack/internal/ports"
)

// Options tunes the service set. Zero values select defaults.
type Options struct {
	SessionLifetime  time.Duration
	CategoryCacheTTL time.Duration
	Clock            Clock
}

// Services is the full set of application services sharing one repository.
type Services struct {
	Users         *UserService
	Sessions      *SessionService
	Trackers      *TrackerService
	Budgets       *BudgetService
	Ledger        *LedgerService
	Reports       *ReportService
	Categories    *CategoryService
	IncomeSources *IncomeSourceService
	Alerts        *AlertService
}

// New wires every service to repo. events may be nil, in which case budget
// checks are not published.
func New(repo ports.Repository, events BudgetCheckPublisher, opts Options) *Services {
	now := opts.Clock
	if now == nil {
		now = systemClock
	}

	trackers := NewTrackerService(repo)
	sessions := NewSessionService(repo, opts.SessionLifetime, now)
	budgets := NewBudgetService(repo, events, now)

	return &Services{
		Users:         NewUserService(repo, trackers, sessions, now),
		Sessions:      sessions,
		Trackers:      trackers,
		Budgets:       budgets,
		Ledger:        NewLedgerService(repo, events, now),
		Reports:       NewReportService(repo, now),
		Categories:    NewCategoryService(repo, opts.CategoryCacheTTL),
		IncomeSources: NewIncomeSourceService(repo),
		Alerts:        NewAlertService(repo, budgets, now),
	}
}
