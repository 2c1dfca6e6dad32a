package http

import (
	"net/http"

	"expensehub/internal/core"
)

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request, action string) bool {
	actor := actorFrom(r)
	if actor.Role != core.RoleAdmin {
		writeError(w, r, &core.UnauthorizedError{ActorID: actor.ID, Role: actor.Role, Action: action})
		return false
	}
	return true
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r, "create category") {
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	category := core.Category{Name: req.Name, ParentID: req.ParentID, IsActive: true}
	if err := category.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	// Parent chains are validated against the full set so a cycle can
	// never be persisted.
	existing, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := core.NewCategorySet(existing).ValidateParent(category.ID, category.ParentID); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := s.store.InsertCategory(r.Context(), category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category.ID = id
	writeJSON(w, http.StatusCreated, categoryResponse{
		ID:       category.ID,
		Name:     category.Name,
		ParentID: category.ParentID,
		IsActive: category.IsActive,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			ParentID: c.ParentID,
			IsActive: c.IsActive,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateActor(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r, "create actor") {
		return
	}

	var req actorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	role, err := core.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, &core.InvalidInputError{Field: "role", Reason: err.Error()})
		return
	}
	if req.Name == "" {
		writeError(w, r, &core.InvalidInputError{Field: "name", Reason: "required"})
		return
	}

	id, err := s.store.InsertActor(r.Context(), core.Actor{Name: req.Name, Role: role})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, core.Actor{ID: id, Name: req.Name, Role: role})
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r, "create team") {
		return
	}

	var req teamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		writeError(w, r, &core.InvalidInputError{Field: "name", Reason: "required"})
		return
	}

	// The manager must exist and actually hold the manager role.
	manager, err := s.store.GetActor(r.Context(), req.ManagerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if manager.Role != core.RoleManager && manager.Role != core.RoleAdmin {
		writeError(w, r, &core.InvalidInputError{Field: "manager_id", Reason: "actor is not a manager"})
		return
	}
	for _, memberID := range req.MemberIDs {
		if _, err := s.store.GetActor(r.Context(), memberID); err != nil {
			writeError(w, r, err)
			return
		}
	}

	team := core.Team{Name: req.Name, ManagerID: req.ManagerID, MemberIDs: req.MemberIDs}
	id, err := s.store.InsertTeam(r.Context(), team)
	if err != nil {
		writeError(w, r, err)
		return
	}
	team.ID = id
	writeJSON(w, http.StatusCreated, team)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r)
	rows, err := s.store.ListNotificationsForUser(r.Context(), actor.ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]notificationResponse, len(rows))
	for i, n := range rows {
		out[i] = notificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			Metadata:  n.Metadata,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
