package http

import (
	"context"
	"net/http"
	"time"

	"expensehub/internal/core"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	created, err := s.lifecycle.CreateExpense(r.Context(), actor.ID, expense)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	scope, err := s.visibility.ResolveScope(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := s.store.GetExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !scope.AllowsExpense(expense.OwnerID, expense.TeamID) {
		writeError(w, r, &core.UnauthorizedError{ActorID: actor.ID, Role: actor.Role, Action: "read expense"})
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

// handleListExpenses returns the expenses visible to the caller within an
// optional date range; the range defaults to the current month.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	now := core.DateOf(time.Now())
	defaultFrom := core.NewDate(now.Year(), int(now.Month()), 1)

	from, err := queryDate(r, "from", defaultFrom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if to.Before(from) {
		writeError(w, r, &core.InvalidInputError{Field: "date_range", Reason: "from must not be after to"})
		return
	}

	actor := actorFrom(r)
	scope, err := s.visibility.ResolveScope(r.Context(), actor.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := s.store.ListExpensesByDateRange(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(scope.FilterExpenses(rows)))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expense, err := req.toExpense()
	if err != nil {
		writeError(w, r, err)
		return
	}
	expense.ID = id

	actor := actorFrom(r)
	updated, err := s.lifecycle.UpdateExpense(r.Context(), actor.ID, expense)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleSubmitExpense(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.lifecycle.Submit)
}

func (s *Server) handleApproveExpense(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.lifecycle.Approve)
}

func (s *Server) handleRejectExpense(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.lifecycle.Reject)
}

func (s *Server) handlePayExpense(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.lifecycle.MarkPaid)
}

func (s *Server) handleReopenExpense(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.lifecycle.Reopen)
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID, expenseID int64) (core.Expense, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	expense, err := op(r.Context(), actor.ID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}
