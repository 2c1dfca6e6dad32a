package http

import (
	"net/http"
	"time"

	"expensehub/internal/core"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := req.toBudget()
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	if budget.OwnerID == 0 {
		budget.OwnerID = actor.ID
	}
	// Only admins create budgets on someone else's behalf.
	if budget.OwnerID != actor.ID && actor.Role != core.RoleAdmin {
		writeError(w, r, &core.UnauthorizedError{ActorID: actor.ID, Role: actor.Role, Action: "create budget for another owner"})
		return
	}
	if err := budget.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if budget.CategoryID != nil {
		if _, err := s.store.GetCategory(r.Context(), *budget.CategoryID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	id, err := s.store.InsertBudget(r.Context(), budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budget.ID = id
	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)

	var (
		budgets []core.Budget
		err     error
	)
	if actor.Role == core.RoleAdmin {
		budgets, err = s.store.ListActiveBudgets(r.Context())
	} else {
		budgets, err = s.store.ListActiveBudgetsByOwner(r.Context(), actor.ID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = toBudgetResponse(b)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDeactivateBudget retires a budget. Rows are never hard-deleted so
// historical analytics stay reproducible.
func (s *Server) handleDeactivateBudget(w http.ResponseWriter, r *http.Request) {
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

	budget, err := s.store.GetBudget(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !scope.AllowsBudget(budget.OwnerID) {
		writeError(w, r, &core.UnauthorizedError{ActorID: actor.ID, Role: actor.Role, Action: "deactivate budget"})
		return
	}

	if err := s.store.DeactivateBudget(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleBudgetUtilization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	asOf, err := queryDate(r, "as_of", core.DateOf(time.Now()))
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

	budget, err := s.store.GetBudget(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !scope.AllowsBudget(budget.OwnerID) {
		writeError(w, r, &core.UnauthorizedError{ActorID: actor.ID, Role: actor.Role, Action: "read budget utilization"})
		return
	}

	util, err := s.budgets.Evaluate(r.Context(), budget, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUtilizationResponse(util))
}
