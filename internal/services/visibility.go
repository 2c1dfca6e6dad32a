// Package services implements the four engines of the system: visibility
// resolution, the expense lifecycle, budget utilization, and analytics
// aggregation. Services hold store ports and never touch a concrete backend.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"expensehub/internal/core"
	"expensehub/internal/store"
)

// Scope is the resolved visibility of one actor for one request. Managed
// team and member id sets are fetched once at resolution time; the predicate
// methods are pure and safe to call per record over any size of record set.
type Scope struct {
	ActorID int64
	Role    core.Role

	managedTeams   map[int64]struct{}
	managedMembers map[int64]struct{}
}

// AllowsExpense reports whether the scope covers an expense owned by ownerID
// with the given team assignment. Membership is the authoritative link for
// managers: a teammate's record is visible even when its team_id is null.
func (s *Scope) AllowsExpense(ownerID int64, teamID *int64) bool {
	switch s.Role {
	case core.RoleAdmin:
		return true
	case core.RoleManager:
		if ownerID == s.ActorID {
			return true
		}
		if teamID != nil {
			if _, ok := s.managedTeams[*teamID]; ok {
				return true
			}
		}
		_, ok := s.managedMembers[ownerID]
		return ok
	default:
		return ownerID == s.ActorID
	}
}

// AllowsBudget reports whether the scope covers a budget owned by ownerID.
// Budget visibility is narrower than expense visibility: managers see only
// their own budgets.
func (s *Scope) AllowsBudget(ownerID int64) bool {
	if s.Role == core.RoleAdmin {
		return true
	}
	return ownerID == s.ActorID
}

// FilterExpenses returns the subset of expenses the scope covers.
func (s *Scope) FilterExpenses(expenses []core.Expense) []core.Expense {
	if s.Role == core.RoleAdmin {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if s.AllowsExpense(e.OwnerID, e.TeamID) {
			out = append(out, e)
		}
	}
	return out
}

// VisibilityService resolves actor scopes. The actor's role is re-read from
// the store on every resolution; it is never cached across requests.
type VisibilityService struct {
	actors store.ActorStore
	teams  store.TeamStore
}

func NewVisibilityService(actors store.ActorStore, teams store.TeamStore) *VisibilityService {
	return &VisibilityService{actors: actors, teams: teams}
}

// ResolveScope fetches the actor and, for managers, the managed team rosters
// in a single pass. Unknown actor ids surface as core.NotFoundError.
func (v *VisibilityService) ResolveScope(ctx context.Context, actorID int64) (*Scope, error) {
	actor, err := v.actors.GetActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("resolve scope: %w", err)
	}

	scope := &Scope{ActorID: actor.ID, Role: actor.Role}

	if actor.Role == core.RoleManager {
		teams, err := v.teams.ListTeamsManagedBy(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("list managed teams: %w", err)
		}
		scope.managedTeams = make(map[int64]struct{}, len(teams))
		scope.managedMembers = make(map[int64]struct{})
		for _, t := range teams {
			scope.managedTeams[t.ID] = struct{}{}
			for _, m := range t.MemberIDs {
				scope.managedMembers[m] = struct{}{}
			}
		}
		slog.DebugContext(ctx, "Resolved manager scope",
			"actor_id", actor.ID,
			"teams", len(scope.managedTeams),
			"members", len(scope.managedMembers))
	}

	return scope, nil
}
