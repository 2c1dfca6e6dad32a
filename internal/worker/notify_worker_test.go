package worker

import (
	"context"
	"testing"

	"expensehub/internal/amqp"
	"expensehub/internal/core"
	"expensehub/internal/store/memory"
)

func TestHandleMessagePersistsPerRecipient(t *testing.T) {
	st := memory.New()
	w := NewNotifyWorker(st)
	ctx := context.Background()

	msg := amqp.NewNotificationMessage(core.Notification{
		UserIDs:  []int64{1, 2},
		Type:     core.NotifyBudgetAlert,
		Title:    "Budget alert",
		Message:  "Travel budget at 85%",
		Metadata: map[string]string{"budget_id": "3"},
	})

	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	for _, userID := range []int64{1, 2} {
		rows, err := st.ListNotificationsForUser(ctx, userID, 10)
		if err != nil {
			t.Fatalf("list notifications: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("user %d: got %d notifications, want 1", userID, len(rows))
		}
		n := rows[0]
		if n.Type != core.NotifyBudgetAlert || n.Title != "Budget alert" {
			t.Errorf("user %d: stored %+v", userID, n)
		}
		if n.IsRead {
			t.Errorf("user %d: new notification must be unread", userID)
		}
		if n.Metadata["budget_id"] != "3" {
			t.Errorf("user %d: metadata lost: %v", userID, n.Metadata)
		}
	}
}

func TestHandleMessageDropsEmptyRecipients(t *testing.T) {
	st := memory.New()
	w := NewNotifyWorker(st)

	msg := amqp.NewNotificationMessage(core.Notification{Type: core.NotifyExpenseApproved})
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("empty recipients must be dropped silently, got %v", err)
	}
}

func TestLocalNotifier(t *testing.T) {
	st := memory.New()
	n := NewLocalNotifier(st)
	ctx := context.Background()

	err := n.Enqueue(ctx, core.Notification{
		UserIDs: []int64{5},
		Type:    core.NotifyExpenseRejected,
		Title:   "Expense rejected",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rows, err := st.ListNotificationsForUser(ctx, 5, 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d notifications, want 1", len(rows))
	}
}
