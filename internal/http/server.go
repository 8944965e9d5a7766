package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

const (
	readTimeout    = 10 * time.Second
	writeTimeout   = 10 * time.Second
	idleTimeout    = 60 * time.Second
	maxHeaderBytes = 64 << 10

	cacheCleanupInterval = time.Minute
)

// IdentityProvider runs the Google authorization-code flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (core.GoogleIdentity, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr               string
	RateLimitPerMinute int
	CookieSecure       bool
	// Google is nil when Google sign-in is not configured.
	Google IdentityProvider
	Logger *log.Logger
}

type Server struct {
	http.Server
	svc          *services.Services
	db           Pinger
	google       IdentityProvider
	cookieSecure bool

	logger      *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	caches      *cache.Manager
	started     time.Time

	shutdownOnce sync.Once
}

func NewServer(svc *services.Services, db Pinger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	s := &Server{
		svc:          svc,
		db:           db,
		google:       opts.Google,
		cookieSecure: opts.CookieSecure,
		logger:       log.NewStructuredLogger(logger),
		rateLimiter:  ratelimit.NewLimiter(rlConfig),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP, logger),
		caches:       cache.NewManager(),
		started:      time.Now(),
	}

	s.caches.Register(svc.Categories.Cache())
	s.caches.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, handleRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:           opts.Addr,
		Handler:        handler,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/check", s.requireSession(s.handleCheck))
	mux.HandleFunc("GET /api/auth/google", s.handleGoogleStart)
	mux.HandleFunc("GET /api/auth/google/callback", s.handleGoogleCallback)

	mux.HandleFunc("GET /api/profile", s.requireSession(s.handleGetProfile))
	mux.HandleFunc("PATCH /api/profile", s.requireSession(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/trackers", s.requireSession(s.handleListTrackers))
	mux.HandleFunc("POST /api/trackers", s.requireSession(s.handleCreateTracker))
	mux.HandleFunc("POST /api/trackers/switch", s.requireSession(s.handleSwitchTracker))
	mux.HandleFunc("GET /api/trackers/{id}", s.requireSession(s.handleGetTracker))
	mux.HandleFunc("PATCH /api/trackers/{id}", s.requireSession(s.handleUpdateTracker))
	mux.HandleFunc("DELETE /api/trackers/{id}", s.requireSession(s.handleDeleteTracker))
	mux.HandleFunc("POST /api/trackers/{id}/default", s.requireSession(s.handleSetDefaultTracker))

	mux.HandleFunc("GET /api/budgets", s.requireTracker(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.requireTracker(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/alerts", s.requireTracker(s.handleListBudgetAlerts))
	mux.HandleFunc("PATCH /api/budgets/{id}", s.requireTracker(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.requireTracker(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/expenses", s.requireTracker(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.requireTracker(s.handleCreateExpense))
	mux.HandleFunc("PATCH /api/expenses/{id}", s.requireTracker(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.requireTracker(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/income", s.requireTracker(s.handleListIncome))
	mux.HandleFunc("POST /api/income", s.requireTracker(s.handleCreateIncome))
	mux.HandleFunc("PATCH /api/income/{id}", s.requireTracker(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/income/{id}", s.requireTracker(s.handleDeleteIncome))

	mux.HandleFunc("GET /api/transactions/summary", s.requireTracker(s.handleSummary))

	mux.HandleFunc("GET /api/categories", s.requireSession(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.requireSession(s.handleCreateCategory))

	mux.HandleFunc("GET /api/income-sources", s.requireTracker(s.handleListIncomeSources))
	mux.HandleFunc("POST /api/income-sources", s.requireTracker(s.handleCreateIncomeSource))
	mux.HandleFunc("PATCH /api/income-sources/{id}", s.requireTracker(s.handleUpdateIncomeSource))
	mux.HandleFunc("DELETE /api/income-sources/{id}", s.requireTracker(s.handleDeleteIncomeSource))

	mux.HandleFunc("GET /api/reports/category-breakdown", s.requireTracker(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /api/reports/income-breakdown", s.requireTracker(s.handleIncomeBreakdown))
	mux.HandleFunc("GET /api/reports/monthly-trend", s.requireTracker(s.handleMonthlyTrend))
	mux.HandleFunc("GET /api/reports/monthly-trend.png", s.requireTracker(s.handleMonthlyTrendChart))
}

// Shutdown stops the background helpers and then the HTTP server. Only the
// first call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// writeError sends the envelope for err. Server-side failures are logged
// with their cause, which never reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	resp := ServiceError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		ctx := r.Context()
		scope := scopeFrom(ctx)
		errorType := log.ErrorTypeInternal
		if errors.Is(err, core.ErrStorage) {
			errorType = log.ErrorTypeDatabase
		}
		s.logger.LogError(ctx, "Request failed", err, errorType, op,
			log.NewFields().
				WithRequestID(trace.GetRequestID(ctx)).
				WithScope(scope.UserID, scope.TrackerID).
				WithHTTPRequest(r.Method, r.URL.Path, "", ""))
	}
	resp.Write(w)
}
