// Package worker contains the queue consumers. The notification worker
// drains the AMQP queue and persists per-recipient rows; delivery channels
// such as email stay outside this service.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensehub/internal/amqp"
	"expensehub/internal/core"
	"expensehub/internal/store"
)

// NotifyWorker persists queued notifications.
type NotifyWorker struct {
	notifications store.NotificationStore
}

func NewNotifyWorker(notifications store.NotificationStore) *NotifyWorker {
	return &NotifyWorker{notifications: notifications}
}

// HandleMessage processes a single notification message from AMQP.
func (w *NotifyWorker) HandleMessage(ctx context.Context, msg *amqp.NotificationMessage) error {
	slog.InfoContext(ctx, "Processing notification message",
		"type", msg.Type,
		"recipients", len(msg.UserIDs))

	if len(msg.UserIDs) == 0 {
		slog.WarnContext(ctx, "Notification message has no recipients, dropping",
			"type", msg.Type)
		return nil
	}

	if err := w.notifications.InsertNotification(ctx, msg.Notification()); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	return nil
}

// LocalNotifier writes notifications straight to the store. It stands in
// for the AMQP pipeline when no broker is configured, keeping single-binary
// deployments working.
type LocalNotifier struct {
	notifications store.NotificationStore
}

func NewLocalNotifier(notifications store.NotificationStore) *LocalNotifier {
	return &LocalNotifier{notifications: notifications}
}

func (n *LocalNotifier) Enqueue(ctx context.Context, notif core.Notification) error {
	if len(notif.UserIDs) == 0 {
		return nil
	}
	return n.notifications.InsertNotification(ctx, notif)
}
