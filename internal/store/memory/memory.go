// Package memory is a mutex-guarded in-memory implementation of the store
// ports. It backs the service tests and doubles as a zero-dependency dev
// backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"expensehub/internal/core"
)

type Store struct {
	mu sync.Mutex

	actors     map[int64]core.Actor
	teams      map[int64]core.Team
	categories map[int64]core.Category
	expenses   map[int64]core.Expense
	budgets    map[int64]core.Budget
	notifs     []core.StoredNotification

	nextID int64
}

func New() *Store {
	return &Store{
		actors:     make(map[int64]core.Actor),
		teams:      make(map[int64]core.Team),
		categories: make(map[int64]core.Category),
		expenses:   make(map[int64]core.Expense),
		budgets:    make(map[int64]core.Budget),
		nextID:     1,
	}
}

func (s *Store) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// PutActor seeds or replaces an actor record.
func (s *Store) PutActor(a core.Actor) core.Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextIDLocked()
	} else if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
	s.actors[a.ID] = a
	return a
}

// PutTeam seeds or replaces a team record.
func (s *Store) PutTeam(t core.Team) core.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextIDLocked()
	} else if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	s.teams[t.ID] = t
	return t
}

func (s *Store) InsertActor(_ context.Context, a core.Actor) (int64, error) {
	return s.PutActor(a).ID, nil
}

func (s *Store) InsertTeam(_ context.Context, t core.Team) (int64, error) {
	return s.PutTeam(t).ID, nil
}

func (s *Store) GetActor(_ context.Context, id int64) (core.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[id]
	if !ok {
		return core.Actor{}, &core.NotFoundError{Entity: "actor", ID: id}
	}
	return a, nil
}

func (s *Store) ListAdminIDs(_ context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, a := range s.actors {
		if a.Role == core.RoleAdmin {
			ids = append(ids, a.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GetTeam(_ context.Context, id int64) (core.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[id]
	if !ok {
		return core.Team{}, &core.NotFoundError{Entity: "team", ID: id}
	}
	return copyTeam(t), nil
}

func (s *Store) ListTeamsManagedBy(_ context.Context, managerID int64) ([]core.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Team
	for _, t := range s.teams {
		if t.ManagerID == managerID {
			out = append(out, copyTeam(t))
		}
	}
	sortTeams(out)
	return out, nil
}

func (s *Store) ListTeamsForMember(_ context.Context, userID int64) ([]core.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Team
	for _, t := range s.teams {
		if t.HasMember(userID) {
			out = append(out, copyTeam(t))
		}
	}
	sortTeams(out)
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextIDLocked()
	s.categories[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, &core.NotFoundError{Entity: "expense", ID: id}
	}
	return e, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextIDLocked()
	s.expenses[e.ID] = e
	return e.ID, nil
}

func (s *Store) UpdateExpenseDraft(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok {
		return &core.NotFoundError{Entity: "expense", ID: e.ID}
	}
	cur.Amount = e.Amount
	cur.CategoryID = e.CategoryID
	cur.Date = e.Date
	cur.Description = e.Description
	s.expenses[e.ID] = cur
	return nil
}

// UpdateExpenseStatus performs the compare-and-swap under the store mutex,
// which gives the same single-row atomicity the SQLite backend gets from a
// conditional UPDATE.
func (s *Store) UpdateExpenseStatus(_ context.Context, id int64, from, to core.Status, approverID *int64, approvedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[id]
	if !ok {
		return &core.NotFoundError{Entity: "expense", ID: id}
	}
	if cur.Status != from {
		return &core.ConflictError{ExpenseID: id, Expected: from}
	}
	cur.Status = to
	cur.ApproverID = approverID
	cur.ApprovedAt = approvedAt
	s.expenses[id] = cur
	return nil
}

func (s *Store) ListExpensesByOwner(_ context.Context, ownerID int64, from, to core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.OwnerID == ownerID && e.Date.Within(from, to) {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (s *Store) ListExpensesByDateRange(_ context.Context, from, to core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.Date.Within(from, to) {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, &core.NotFoundError{Entity: "budget", ID: id}
	}
	return b, nil
}

func (s *Store) InsertBudget(_ context.Context, b core.Budget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextIDLocked()
	s.budgets[b.ID] = b
	return b.ID, nil
}

func (s *Store) DeactivateBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	b.IsActive = false
	s.budgets[id] = b
	return nil
}

func (s *Store) ListActiveBudgetsByOwner(_ context.Context, ownerID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.IsActive && b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sortBudgets(out)
	return out, nil
}

func (s *Store) ListActiveBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.IsActive {
			out = append(out, b)
		}
	}
	sortBudgets(out)
	return out, nil
}

func (s *Store) SetBudgetAlertTier(_ context.Context, id int64, tier int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	b.LastAlertTier = tier
	s.budgets[id] = b
	return nil
}

func (s *Store) InsertNotification(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uid := range n.UserIDs {
		s.notifs = append(s.notifs, core.StoredNotification{
			ID:        s.nextIDLocked(),
			UserID:    uid,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Metadata:  copyMeta(n.Metadata),
			CreatedAt: time.Now(),
		})
	}
	return nil
}

func (s *Store) ListNotificationsForUser(_ context.Context, userID int64, limit int) ([]core.StoredNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.StoredNotification
	for i := len(s.notifs) - 1; i >= 0; i-- {
		if s.notifs[i].UserID == userID {
			out = append(out, s.notifs[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func copyTeam(t core.Team) core.Team {
	t.MemberIDs = append([]int64(nil), t.MemberIDs...)
	return t
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortTeams(ts []core.Team) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
}

func sortExpenses(es []core.Expense) {
	sort.Slice(es, func(i, j int) bool {
		if !es[i].Date.Equal(es[j].Date.Time) {
			return es[i].Date.Before(es[j].Date)
		}
		return es[i].ID < es[j].ID
	})
}

func sortBudgets(bs []core.Budget) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].ID < bs[j].ID })
}
