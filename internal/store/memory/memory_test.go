package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"expensehub/internal/core"
)

func TestUpdateExpenseStatusCAS(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.InsertExpense(ctx, core.Expense{
		OwnerID:     1,
		CategoryID:  1,
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2025, 1, 10),
		Description: "lunch",
		Status:      core.StatusPending,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	approver := int64(2)
	now := time.Now()

	if err := s.UpdateExpenseStatus(ctx, id, core.StatusPending, core.StatusApproved, &approver, &now); err != nil {
		t.Fatalf("first CAS should succeed: %v", err)
	}

	err = s.UpdateExpenseStatus(ctx, id, core.StatusPending, core.StatusRejected, &approver, &now)
	if !core.IsConflict(err) {
		t.Fatalf("second CAS should conflict, got %v", err)
	}
}

// TestUpdateExpenseStatusConcurrent races many approvers at one pending
// expense; exactly one may win.
func TestUpdateExpenseStatusConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, _ := s.InsertExpense(ctx, core.Expense{
		OwnerID:     1,
		CategoryID:  1,
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2025, 1, 10),
		Description: "lunch",
		Status:      core.StatusPending,
	})

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			approver := int64(100 + n)
			now := time.Now()
			err := s.UpdateExpenseStatus(ctx, id, core.StatusPending, core.StatusApproved, &approver, &now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case core.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("exactly one attempt should win, got %d", wins)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestListTeamsForMember(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.PutActor(core.Actor{ID: 1, Name: "mgr", Role: core.RoleManager})
	s.PutTeam(core.Team{ID: 10, Name: "platform", ManagerID: 1, MemberIDs: []int64{4, 5}})
	s.PutTeam(core.Team{ID: 11, Name: "infra", ManagerID: 2, MemberIDs: []int64{5}})

	teams, err := s.ListTeamsForMember(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}

	teams, _ = s.ListTeamsForMember(ctx, 4)
	if len(teams) != 1 || teams[0].ID != 10 {
		t.Fatalf("expected only team 10 for member 4, got %+v", teams)
	}
}

func TestNotificationFanOut(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.InsertNotification(ctx, core.Notification{
		UserIDs: []int64{1, 2, 3},
		Type:    core.NotifyApprovalRequest,
		Title:   "Approval needed",
		Message: "expense 5 awaits review",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	for _, uid := range []int64{1, 2, 3} {
		rows, err := s.ListNotificationsForUser(ctx, uid, 10)
		if err != nil {
			t.Fatalf("list for %d: %v", uid, err)
		}
		if len(rows) != 1 {
			t.Errorf("user %d: expected 1 notification, got %d", uid, len(rows))
		}
	}
}
