package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/log"
	"fintrack/internal/services"
)

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryDateRange(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}

	breakdown, err := s.svc.Reports.CategoryBreakdown(r.Context(), scopeFrom(r.Context()), start, end)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Field("breakdown", breakdown).Write(w)
}

func (s *Server) handleIncomeBreakdown(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryDateRange(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}

	breakdown, err := s.svc.Reports.IncomeBreakdown(r.Context(), scopeFrom(r.Context()), start, end)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Field("breakdown", breakdown).Write(w)
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r.URL.Query(), "months", services.DefaultTrendMonths)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}

	trend, err := s.svc.Reports.MonthlyTrend(r.Context(), scopeFrom(r.Context()), months)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Field("trend", trend).Write(w)
}

func (s *Server) handleMonthlyTrendChart(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r.URL.Query(), "months", services.DefaultTrendMonths)
	if err != nil {
		s.writeError(w, r, err, log.OpRender)
		return
	}

	png, err := s.svc.Reports.TrendChart(r.Context(), scopeFrom(r.Context()), months)
	if err != nil {
		s.writeError(w, r, err, log.OpRender)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
