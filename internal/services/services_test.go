package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fixedNow is the clock every test runs against: 2025-06-15 10:00 UTC.
var fixedNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	checks []core.Scope
}

func (p *recordingPublisher) PublishBudgetCheck(_ context.Context, userID, trackerID int64, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, core.Scope{UserID: userID, TrackerID: trackerID})
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.checks)
}

type testEnv struct {
	repo   *storage.SQLiteRepository
	svc    *Services
	events *recordingPublisher
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	env := &testEnv{repo: repo, events: &recordingPublisher{}, now: fixedNow}
	env.svc = New(repo, env.events, Options{Clock: func() time.Time { return env.now }})
	env.svc.Users.hashCost = bcrypt.MinCost
	return env
}

// register creates a user and returns the scope of their session.
func (e *testEnv) register(t *testing.T, email, name string) core.Scope {
	t.Helper()
	res, err := e.svc.Users.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: "correct-horse",
		FullName: name,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Tracker)
	return core.Scope{UserID: res.User.ID, TrackerID: res.Tracker.ID, SessionToken: res.Session.Token}
}

func moneyPtr(cents int64) *core.Money {
	m := core.NewMoney(cents)
	return &m
}

func countDefaults(trackers []core.Tracker) int {
	n := 0
	for _, t := range trackers {
		if t.IsDefault && t.IsActive {
			n++
		}
	}
	return n
}

func TestRegister_CreatesDefaultTrackerAtomically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	scope := env.register(t, "Ann@Example.com", "Ann")

	trackers, err := env.svc.Trackers.List(ctx, scope, true)
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "Ann's Budget", trackers[0].Name)
	assert.True(t, trackers[0].IsDefault)

	_, err = env.svc.Users.Register(ctx, RegisterInput{Email: "ann@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, core.ErrConflict)

	_, err = env.svc.Users.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestDefaultTrackerName(t *testing.T) {
	assert.Equal(t, "My Budget", DefaultTrackerName("  "))
	assert.Equal(t, "Kim's Budget", DefaultTrackerName("Kim"))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "cara@example.com", "Cara")

	res, err := env.svc.Users.Login(ctx, "CARA@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, scope.UserID, res.User.ID)
	require.NotNil(t, res.Tracker)
	assert.Equal(t, scope.TrackerID, res.Tracker.ID)
	assert.NotEmpty(t, res.Session.Token)
	assert.Equal(t, fixedNow.Add(DefaultSessionLifetime), res.Session.ExpiresAt)

	_, err = env.svc.Users.Login(ctx, "cara@example.com", "wrong-password")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, "Invalid email or password", core.PublicMessage(err))

	_, err = env.svc.Users.Login(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestLoginWithGoogle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "pw@example.com", "Password User")

	_, err := env.svc.Users.LoginWithGoogle(ctx, core.GoogleIdentity{ID: "g-1", Email: "pw@example.com"})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, "Email already registered. Please use password login.", core.PublicMessage(err))

	first, err := env.svc.Users.LoginWithGoogle(ctx, core.GoogleIdentity{ID: "g-2", Email: "new@example.com", Name: "Gina"})
	require.NoError(t, err)
	require.NotNil(t, first.Tracker)
	assert.Equal(t, "Gina's Budget", first.Tracker.Name)

	again, err := env.svc.Users.LoginWithGoogle(ctx, core.GoogleIdentity{ID: "g-2", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.NotEqual(t, first.Session.Token, again.Session.Token)

	_, err = env.svc.Users.Login(ctx, "new@example.com", "anything")
	assert.ErrorIs(t, err, core.ErrUnauthorized, "google-only accounts have no password")
}

func TestSessions_ResolveAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "dan@example.com", "Dan")

	got, err := env.svc.Sessions.Resolve(ctx, scope.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, scope, got)

	_, err = env.svc.Sessions.Resolve(ctx, "not-a-session")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	env.now = fixedNow.Add(DefaultSessionLifetime + time.Minute)
	_, err = env.svc.Sessions.Resolve(ctx, scope.SessionToken)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = env.repo.GetSession(ctx, scope.SessionToken)
	assert.ErrorIs(t, err, core.ErrNotFound, "expired session is removed")
}

func TestSessions_FallBackToDefaultWhenActiveTrackerDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "eli@example.com", "Eli")

	second, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "Side"})
	require.NoError(t, err)
	_, err = env.svc.Trackers.Switch(ctx, scope, second)
	require.NoError(t, err)

	resolved, err := env.svc.Sessions.Resolve(ctx, scope.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, second, resolved.TrackerID)

	require.NoError(t, env.svc.Trackers.Delete(ctx, resolved, second))

	resolved, err = env.svc.Sessions.Resolve(ctx, scope.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, scope.TrackerID, resolved.TrackerID)
}

func TestTrackers_CreateFirstIsDefaultOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "fay@example.com", "Fay")

	id, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "Holiday"})
	require.NoError(t, err)

	tr, err := env.svc.Trackers.Get(ctx, scope, id)
	require.NoError(t, err)
	assert.False(t, tr.IsDefault)
	assert.Equal(t, core.DefaultTrackerIcon, tr.Icon)

	_, err = env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "  "})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestTrackers_SetDefaultTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "gus@example.com", "Gus")

	b, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "B"})
	require.NoError(t, err)
	c, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "C"})
	require.NoError(t, err)

	for _, target := range []int64{b, c} {
		require.NoError(t, env.svc.Trackers.SetDefault(ctx, scope, target))

		trackers, err := env.svc.Trackers.List(ctx, scope, true)
		require.NoError(t, err)
		assert.Equal(t, 1, countDefaults(trackers))

		def, err := env.svc.Trackers.GetDefault(ctx, scope.UserID)
		require.NoError(t, err)
		assert.Equal(t, target, def.ID)
	}
}

func TestTrackers_DeleteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "hal@example.com", "Hal")

	t.Run("last tracker cannot be deleted", func(t *testing.T) {
		err := env.svc.Trackers.Delete(ctx, scope, scope.TrackerID)
		assert.ErrorIs(t, err, core.ErrConflict)
		assert.ErrorIs(t, err, core.ErrLastTracker)
	})

	second, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "Second"})
	require.NoError(t, err)
	third, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "Third"})
	require.NoError(t, err)

	t.Run("deleting a non-default keeps the default", func(t *testing.T) {
		require.NoError(t, env.svc.Trackers.Delete(ctx, scope, third))

		def, err := env.svc.Trackers.GetDefault(ctx, scope.UserID)
		require.NoError(t, err)
		assert.Equal(t, scope.TrackerID, def.ID)
	})

	t.Run("deleting the default promotes the oldest other tracker", func(t *testing.T) {
		require.NoError(t, env.svc.Trackers.Delete(ctx, scope, scope.TrackerID))

		trackers, err := env.svc.Trackers.List(ctx, scope, true)
		require.NoError(t, err)
		require.Len(t, trackers, 1)
		assert.Equal(t, second, trackers[0].ID)
		assert.Equal(t, 1, countDefaults(trackers))
	})

	t.Run("deleted tracker is gone for good", func(t *testing.T) {
		err := env.svc.Trackers.Delete(ctx, scope, third)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestTrackers_SwitchToForeignTracker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.register(t, "ida@example.com", "Ida")
	intruder := env.register(t, "jon@example.com", "Jon")

	_, err := env.svc.Trackers.Switch(ctx, intruder, owner.TrackerID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	sess, err := env.repo.GetSession(ctx, intruder.SessionToken)
	require.NoError(t, err)
	require.NotNil(t, sess.ActiveTrackerID)
	assert.Equal(t, intruder.TrackerID, *sess.ActiveTrackerID, "session pointer unchanged")
}

func TestTrackers_UpdateEmptyPatch(t *testing.T) {
	env := newTestEnv(t)
	scope := env.register(t, "kai@example.com", "Kai")

	_, err := env.svc.Trackers.Update(context.Background(), scope, scope.TrackerID, core.TrackerPatch{})
	assert.ErrorIs(t, err, core.ErrNoFields)
}

func TestBudgets_ScenarioTwoTrackers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	t1 := env.register(t, "lea@example.com", "Lea")

	t2ID, err := env.svc.Trackers.Create(ctx, t1, core.TrackerInput{Name: "T2"})
	require.NoError(t, err)
	t2 := t1
	t2.TrackerID = t2ID

	_, err = env.svc.Ledger.AddExpense(ctx, t1, core.ExpenseInput{
		Amount:          moneyPtr(5000),
		TransactionDate: core.NewDate(2025, 6, 10),
	})
	require.NoError(t, err)

	_, err = env.svc.Budgets.Create(ctx, t1, core.BudgetInput{
		Name:      "June",
		Amount:    moneyPtr(10000),
		StartDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)

	budgets, err := env.svc.Budgets.GetUserBudgets(ctx, t1, nil)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, int64(5000), budgets[0].Spent.Cents)
	assert.Equal(t, int64(5000), budgets[0].Remaining.Cents)
	assert.Equal(t, 50.0, budgets[0].Percentage)

	other, err := env.svc.Budgets.GetUserBudgets(ctx, t2, nil)
	require.NoError(t, err)
	assert.Empty(t, other, "budgets are confined to their tracker")

	assert.Equal(t, 2, env.events.count(), "expense and budget writes publish checks")
}

func TestBudgets_Figures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "max@example.com", "Max")

	_, err := env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount:          moneyPtr(15000),
		TransactionDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		amount        int64
		start         core.Date
		wantSpent     int64
		wantRemaining int64
		wantPercent   float64
	}{
		{"nothing spent", 10000, core.NewDate(2025, 6, 2), 0, 10000, 0},
		{"overspent", 10000, core.NewDate(2025, 6, 1), 15000, -5000, 150},
		{"zero amount", 0, core.NewDate(2025, 6, 1), 15000, -15000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := env.svc.Budgets.Create(ctx, scope, core.BudgetInput{
				Name:      tt.name,
				Amount:    moneyPtr(tt.amount),
				StartDate: tt.start,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSpent, st.Spent.Cents)
			assert.Equal(t, tt.wantRemaining, st.Remaining.Cents)
			assert.Equal(t, tt.wantPercent, st.Percentage)
		})
	}
}

func TestBudgets_OpenEndedFollowsClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "ned@example.com", "Ned")

	_, err := env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount:          moneyPtr(2000),
		TransactionDate: core.NewDate(2025, 7, 1),
	})
	require.NoError(t, err)

	st, err := env.svc.Budgets.Create(ctx, scope, core.BudgetInput{
		Name: "Open", Amount: moneyPtr(10000), StartDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)
	assert.Zero(t, st.Spent.Cents, "future expense not yet counted")

	env.now = time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	st, err = env.svc.Budgets.Get(ctx, scope, st.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), st.Spent.Cents)
}

func TestBudgets_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "ola@example.com", "Ola")
	stranger := env.register(t, "pia@example.com", "Pia")

	st, err := env.svc.Budgets.Create(ctx, scope, core.BudgetInput{
		Name: "Food", Amount: moneyPtr(10000), StartDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)

	_, err = env.svc.Budgets.Update(ctx, scope, st.ID, core.BudgetPatch{})
	assert.ErrorIs(t, err, core.ErrNoFields)

	early := core.NewDate(2025, 5, 1)
	_, err = env.svc.Budgets.Update(ctx, scope, st.ID, core.BudgetPatch{EndDate: core.Some(early)})
	assert.ErrorIs(t, err, core.ErrValidation, "end before stored start")

	active := core.FlexBool(false)
	updated, err := env.svc.Budgets.Update(ctx, scope, st.ID, core.BudgetPatch{Amount: moneyPtr(20000), IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(20000), updated.Amount.Cents)
	assert.False(t, updated.IsActive)

	_, err = env.svc.Budgets.Update(ctx, stranger, st.ID, core.BudgetPatch{Amount: moneyPtr(1)})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, env.svc.Budgets.Delete(ctx, stranger, st.ID), core.ErrNotFound)
	assert.NoError(t, env.svc.Budgets.Delete(ctx, scope, st.ID))
	assert.ErrorIs(t, env.svc.Budgets.Delete(ctx, scope, st.ID), core.ErrNotFound)
}

func TestLedger_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "quin@example.com", "Quin")
	other := env.register(t, "rae@example.com", "Rae")

	_, err := env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(0), TransactionDate: core.NewDate(2025, 6, 1),
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{Amount: moneyPtr(100)})
	assert.ErrorIs(t, err, core.ErrValidation, "date is required")

	private, err := env.svc.Categories.Create(ctx, other, core.CategoryInput{Name: "Secret"})
	require.NoError(t, err)

	_, err = env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		CategoryID:      core.Some(private.ID),
		Amount:          moneyPtr(100),
		TransactionDate: core.NewDate(2025, 6, 1),
	})
	assert.ErrorIs(t, err, core.ErrNotFound, "another user's category is not visible")
}

func TestLedger_UpdateDeleteScopedByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "sam@example.com", "Sam")
	other := env.register(t, "tia@example.com", "Tia")

	id, err := env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(1200), TransactionDate: core.NewDate(2025, 6, 3), Description: " Lunch ",
	})
	require.NoError(t, err)

	desc := "Hijack"
	err = env.svc.Ledger.UpdateExpense(ctx, other, id, core.ExpensePatch{Description: &desc})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, env.svc.Ledger.DeleteExpense(ctx, other, id), core.ErrNotFound)

	assert.ErrorIs(t, env.svc.Ledger.UpdateExpense(ctx, scope, id, core.ExpensePatch{}), core.ErrNoFields)

	require.NoError(t, env.svc.Ledger.UpdateExpense(ctx, scope, id, core.ExpensePatch{Amount: moneyPtr(1500)}))

	list, err := env.svc.Ledger.ListExpenses(ctx, scope, core.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1500), list[0].Amount.Cents)
	assert.Equal(t, "Lunch", list[0].Description)
	assert.Equal(t, core.DefaultPaymentMethod, list[0].PaymentMethod)

	require.NoError(t, env.svc.Ledger.DeleteExpense(ctx, scope, id))
	assert.ErrorIs(t, env.svc.Ledger.DeleteExpense(ctx, scope, id), core.ErrNotFound)
}

func TestLedger_Summary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "uma@example.com", "Uma")

	_, err := env.svc.Ledger.AddIncome(ctx, scope, core.IncomeInput{
		Amount: moneyPtr(300000), TransactionDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)
	_, err = env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(45000), TransactionDate: core.NewDate(2025, 6, 5),
	})
	require.NoError(t, err)
	_, err = env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(99900), TransactionDate: core.NewDate(2025, 5, 31),
	})
	require.NoError(t, err)

	sum, err := env.svc.Ledger.Summary(ctx, scope, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", sum.StartDate.String())
	assert.Equal(t, "2025-06-30", sum.EndDate.String())
	assert.Equal(t, int64(300000), sum.TotalIncome.Cents)
	assert.Equal(t, int64(45000), sum.TotalExpenses.Cents)
	assert.Equal(t, int64(255000), sum.NetSavings.Cents)
	require.Len(t, sum.ExpensesByCategory, 1)

	start, end := core.NewDate(2025, 6, 30), core.NewDate(2025, 6, 1)
	_, err = env.svc.Ledger.Summary(ctx, scope, &start, &end)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestReports_EmptyBreakdown(t *testing.T) {
	env := newTestEnv(t)
	scope := env.register(t, "vic@example.com", "Vic")

	b, err := env.svc.Reports.CategoryBreakdown(context.Background(), scope, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, b.Categories)
	assert.Empty(t, b.Categories)
	assert.Zero(t, b.Total.Cents)
}

func TestReports_CategoryBreakdownShares(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "wes@example.com", "Wes")

	cats, err := env.svc.Categories.List(ctx, scope.UserID)
	require.NoError(t, err)

	for _, in := range []core.ExpenseInput{
		{CategoryID: core.Some(cats[0].ID), Amount: moneyPtr(3000), TransactionDate: core.NewDate(2025, 6, 1)},
		{CategoryID: core.Some(cats[0].ID), Amount: moneyPtr(3000), TransactionDate: core.NewDate(2025, 6, 2)},
		{Amount: moneyPtr(4000), TransactionDate: core.NewDate(2025, 6, 3)},
	} {
		_, err := env.svc.Ledger.AddExpense(ctx, scope, in)
		require.NoError(t, err)
	}

	b, err := env.svc.Reports.CategoryBreakdown(ctx, scope, nil, nil)
	require.NoError(t, err)
	require.Len(t, b.Categories, 2)
	assert.Equal(t, int64(10000), b.Total.Cents)
	assert.Equal(t, 60.0, b.Categories[0].Percentage)
	assert.Equal(t, int64(3000), b.Categories[0].Average.Cents)
	assert.Equal(t, core.UncategorizedName, b.Categories[1].Name)
	assert.Equal(t, 40.0, b.Categories[1].Percentage)
}

func TestReports_MonthlyTrend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "xia@example.com", "Xia")

	// five months before the clock's June 2025
	_, err := env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(7000), TransactionDate: core.NewDate(2025, 1, 20),
	})
	require.NoError(t, err)

	points, err := env.svc.Reports.MonthlyTrend(ctx, scope, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2025-04", points[0].Month)
	assert.Equal(t, "Jun 2025", points[2].MonthName)
	for _, p := range points {
		assert.Zero(t, p.Income.Cents)
		assert.Zero(t, p.Expenses.Cents)
	}

	points, err = env.svc.Reports.MonthlyTrend(ctx, scope, 6)
	require.NoError(t, err)
	assert.Equal(t, "2025-01", points[0].Month)
	assert.Equal(t, int64(7000), points[0].Expenses.Cents)

	for _, bad := range []int{0, -1, 121} {
		_, err := env.svc.Reports.MonthlyTrend(ctx, scope, bad)
		assert.ErrorIs(t, err, core.ErrValidation, "months=%d", bad)
	}

	_, err = env.svc.Reports.TrendChart(ctx, scope, 1)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCategories_CacheInvalidatedOnCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "yan@example.com", "Yan")

	before, err := env.svc.Categories.List(ctx, scope.UserID)
	require.NoError(t, err)
	_, err = env.svc.Categories.List(ctx, scope.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.svc.Categories.Cache().Stats().Hits)

	_, err = env.svc.Categories.Create(ctx, scope, core.CategoryInput{Name: "Pets"})
	require.NoError(t, err)

	after, err := env.svc.Categories.List(ctx, scope.UserID)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+1)
}

func TestIncomeSources_CRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "zed@example.com", "Zed")

	src, err := env.svc.IncomeSources.Create(ctx, scope, core.IncomeSourceInput{
		Name:           "Salary",
		IsRecurring:    true,
		ExpectedAmount: core.Some(core.NewMoney(250000)),
	})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultFrequency, src.Frequency)
	require.NotNil(t, src.ExpectedAmount)

	updated, err := env.svc.IncomeSources.Update(ctx, scope, src.ID, core.IncomeSourcePatch{
		ExpectedAmount: core.Null[core.Money](),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.ExpectedAmount)

	_, err = env.svc.IncomeSources.Update(ctx, scope, src.ID, core.IncomeSourcePatch{})
	assert.ErrorIs(t, err, core.ErrNoFields)

	list, err := env.svc.IncomeSources.List(ctx, scope, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, env.svc.IncomeSources.Delete(ctx, scope, src.ID))
	assert.ErrorIs(t, env.svc.IncomeSources.Delete(ctx, scope, src.ID), core.ErrNotFound)
}

func TestAlerts_EvaluateRaisesAndClears(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "abe@example.com", "Abe")

	st, err := env.svc.Budgets.Create(ctx, scope, core.BudgetInput{
		Name: "Fun", Amount: moneyPtr(10000), StartDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)
	_, err = env.svc.Budgets.Create(ctx, scope, core.BudgetInput{
		Name: "Empty", Amount: moneyPtr(0), StartDate: core.NewDate(2025, 6, 1),
	})
	require.NoError(t, err)

	id, err := env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(8500), TransactionDate: core.NewDate(2025, 6, 10),
	})
	require.NoError(t, err)

	raised, err := env.svc.Alerts.Evaluate(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 1, raised)

	alerts, err := env.svc.Alerts.List(ctx, scope)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, st.ID, alerts[0].BudgetID)
	assert.Equal(t, 85.0, alerts[0].Percentage)

	require.NoError(t, env.svc.Ledger.DeleteExpense(ctx, scope, id))
	total, err := env.svc.Alerts.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	alerts, err = env.svc.Alerts.List(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAlerts_ZeroThresholdNeedsSpending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "abe@example.com", "Abe")

	threshold := 0.0
	_, err := env.svc.Budgets.Create(ctx, scope, core.BudgetInput{
		Name: "Watch", Amount: moneyPtr(10000), StartDate: core.NewDate(2025, 6, 1),
		AlertThreshold: &threshold,
	})
	require.NoError(t, err)

	raised, err := env.svc.Alerts.Evaluate(ctx, scope)
	require.NoError(t, err)
	assert.Zero(t, raised)

	_, err = env.svc.Ledger.AddExpense(ctx, scope, core.ExpenseInput{
		Amount: moneyPtr(100), TransactionDate: core.NewDate(2025, 6, 10),
	})
	require.NoError(t, err)

	raised, err = env.svc.Alerts.Evaluate(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 1, raised)
}

func TestLedger_IncomeSourceMustBelongToTracker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scope := env.register(t, "zed@example.com", "Zed")

	side, err := env.svc.Trackers.Create(ctx, scope, core.TrackerInput{Name: "Side"})
	require.NoError(t, err)
	sideScope := core.Scope{UserID: scope.UserID, TrackerID: side, SessionToken: scope.SessionToken}

	src, err := env.svc.IncomeSources.Create(ctx, sideScope, core.IncomeSourceInput{Name: "Freelance"})
	require.NoError(t, err)

	_, err = env.svc.Ledger.AddIncome(ctx, scope, core.IncomeInput{
		SourceID:        core.Some(src.ID),
		Amount:          moneyPtr(5000),
		TransactionDate: core.NewDate(2025, 6, 10),
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	moved := "Moved"
	_, err = env.svc.IncomeSources.Update(ctx, scope, src.ID, core.IncomeSourcePatch{Name: &moved})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, env.svc.IncomeSources.Delete(ctx, scope, src.ID), core.ErrNotFound)

	_, err = env.svc.Ledger.AddIncome(ctx, sideScope, core.IncomeInput{
		SourceID:        core.Some(src.ID),
		Amount:          moneyPtr(5000),
		TransactionDate: core.NewDate(2025, 6, 10),
	})
	assert.NoError(t, err)
}
