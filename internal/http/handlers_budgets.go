package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleListBudgets lists active budgets unless is_active says otherwise.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	isActive, err := queryBool(r.URL.Query(), "is_active")
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	if isActive == nil {
		active := true
		isActive = &active
	}

	budgets, err := s.svc.Budgets.GetUserBudgets(r.Context(), scopeFrom(r.Context()), isActive)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Field("budgets", budgets).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	budget, err := s.svc.Budgets.Create(r.Context(), scopeFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Budget created").
		Field("budget_id", budget.ID).
		Field("budget", budget).
		Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	var p core.BudgetPatch
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}

	budget, err := s.svc.Budgets.Update(r.Context(), scopeFrom(r.Context()), id, p)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Budget updated").Field("budget", budget).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), scopeFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Message("Budget deleted").Write(w)
}

func (s *Server) handleListBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.svc.Alerts.List(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Field("alerts", alerts).Write(w)
}
