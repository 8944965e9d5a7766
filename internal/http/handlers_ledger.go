package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	kindExpense = "expense"
	kindIncome  = "income"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := ledgerFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}

	expenses, err := s.svc.Ledger.ListExpenses(r.Context(), scopeFrom(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().
		Field("expenses", expenses).
		Field("count", len(expenses)).
		Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	id, err := s.svc.Ledger.AddExpense(r.Context(), scopeFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense added",
		log.NewFields().WithTransaction(kindExpense, id, in.Amount.Cents).ToSlice()...)
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Expense added successfully").
		Field("transaction_id", id).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	var p core.ExpensePatch
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}

	if err := s.svc.Ledger.UpdateExpense(r.Context(), scopeFrom(r.Context()), id, p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Expense updated successfully").Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	if err := s.svc.Ledger.DeleteExpense(r.Context(), scopeFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Message("Expense deleted successfully").Write(w)
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	f, err := ledgerFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}

	income, err := s.svc.Ledger.ListIncome(r.Context(), scopeFrom(r.Context()), f)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().
		Field("income", income).
		Field("count", len(income)).
		Write(w)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.IncomeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	id, err := s.svc.Ledger.AddIncome(r.Context(), scopeFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Income added",
		log.NewFields().WithTransaction(kindIncome, id, in.Amount.Cents).ToSlice()...)
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Income added successfully").
		Field("transaction_id", id).
		Write(w)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	var p core.IncomePatch
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}

	if err := s.svc.Ledger.UpdateIncome(r.Context(), scopeFrom(r.Context()), id, p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Income updated successfully").Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	if err := s.svc.Ledger.DeleteIncome(r.Context(), scopeFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Message("Income deleted successfully").Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := queryDateRange(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}

	summary, err := s.svc.Ledger.Summary(r.Context(), scopeFrom(r.Context()), start, end)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Field("summary", summary).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Categories.List(r.Context(), scopeFrom(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Field("categories", categories).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	category, err := s.svc.Categories.Create(r.Context(), scopeFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Category created").
		Field("category", category).
		Write(w)
}

func (s *Server) handleListIncomeSources(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r.URL.Query(), "active_only")
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}

	sources, err := s.svc.IncomeSources.List(r.Context(), scopeFrom(r.Context()), activeOnly == nil || *activeOnly)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().Field("sources", sources).Write(w)
}

func (s *Server) handleCreateIncomeSource(w http.ResponseWriter, r *http.Request) {
	var in core.IncomeSourceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	source, err := s.svc.IncomeSources.Create(r.Context(), scopeFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Income source created").
		Field("source", source).
		Write(w)
}

func (s *Server) handleUpdateIncomeSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	var p core.IncomeSourcePatch
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}

	source, err := s.svc.IncomeSources.Update(r.Context(), scopeFrom(r.Context()), id, p)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Income source updated").Field("source", source).Write(w)
}

func (s *Server) handleDeleteIncomeSource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	if err := s.svc.IncomeSources.Delete(r.Context(), scopeFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Message("Income source deleted").Write(w)
}
