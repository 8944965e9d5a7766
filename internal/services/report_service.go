package services

import (
	"context"
	"errors"

	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/ports"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTrendMonths = 12
	MaxTrendMonths     = 120
)

type ReportService struct {
	store ports.ReportStore
	now   Clock
}

func NewReportService(store ports.ReportStore, now Clock) *ReportService {
	if now == nil {
		now = systemClock
	}
	return &ReportService{store: store, now: now}
}

func (s *ReportService) CategoryBreakdown(ctx context.Context, scope core.Scope, start, end *core.Date) (core.CategoryBreakdown, error) {
	from, to, err := dateRange(s.now, start, end)
	if err != nil {
		return core.CategoryBreakdown{}, err
	}

	rows, err := s.store.ExpenseTotalsByCategory(ctx, scope, from, to)
	if err != nil {
		return core.CategoryBreakdown{}, storageErr("category breakdown", err)
	}

	shares, total := core.BreakdownCategories(rows)
	return core.CategoryBreakdown{
		StartDate:  from,
		EndDate:    to,
		Categories: shares,
		Total:      total,
	}, nil
}

func (s *ReportService) IncomeBreakdown(ctx context.Context, scope core.Scope, start, end *core.Date) (core.IncomeBreakdown, error) {
	from, to, err := dateRange(s.now, start, end)
	if err != nil {
		return core.IncomeBreakdown{}, err
	}

	rows, err := s.store.IncomeTotalsBySource(ctx, scope, from, to)
	if err != nil {
		return core.IncomeBreakdown{}, storageErr("income breakdown", err)
	}

	shares, total := core.BreakdownSources(rows)
	return core.IncomeBreakdown{
		StartDate: from,
		EndDate:   to,
		Sources:   shares,
		Total:     total,
	}, nil
}

// MonthlyTrend returns one zero-filled point per month for the trailing
// months calendar months, current month last.
func (s *ReportService) MonthlyTrend(ctx context.Context, scope core.Scope, months int) ([]core.TrendPoint, error) {
	if months < 1 || months > MaxTrendMonths {
		return nil, core.ValidationError("Months must be between 1 and %d", MaxTrendMonths)
	}

	t := today(s.now)
	from := t.AddMonths(-(months - 1))
	to := t.LastOfMonth()

	var income, expenses map[string]core.Money
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.MonthlyIncomeTotals(gctx, scope, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.MonthlyExpenseTotals(gctx, scope, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storageErr("monthly trend", err)
	}

	points := make([]core.TrendPoint, 0, months)
	for i := 0; i < months; i++ {
		m := from.AddMonths(i)
		key := m.Format("2006-01")
		points = append(points, core.TrendPoint{
			Month:     key,
			MonthName: m.Format("Jan 2006"),
			Income:    income[key],
			Expenses:  expenses[key],
		})
	}
	return points, nil
}

// TrendChart renders MonthlyTrend as a PNG.
func (s *ReportService) TrendChart(ctx context.Context, scope core.Scope, months int) ([]byte, error) {
	points, err := s.MonthlyTrend(ctx, scope, months)
	if err != nil {
		return nil, err
	}

	png, err := chart.RenderTrend(points)
	if errors.Is(err, chart.ErrTooFewPoints) {
		return nil, core.ValidationError("A chart needs at least 2 months")
	}
	if err != nil {
		return nil, storageErr("render trend chart", err)
	}
	return png, nil
}
