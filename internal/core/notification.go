package core

import "time"

// NotificationType is the closed set of notification kinds the core emits.
type NotificationType string

const (
	NotifyBudgetAlert     NotificationType = "budget_alert"
	NotifyApprovalRequest NotificationType = "approval_request"
	NotifyExpenseApproved NotificationType = "expense_approved"
	NotifyExpenseRejected NotificationType = "expense_rejected"
)

// Notification is a fire-and-forget request toward the notification sink.
// The core enqueues it and never reads it back; Metadata is an opaque map
// passed through unchanged.
type Notification struct {
	UserIDs  []int64
	Type     NotificationType
	Title    string
	Message  string
	Metadata map[string]string
}

// StoredNotification is a persisted, per-recipient notification row, the
// sink side of the enqueue contract. Delivery (email, push) stays outside
// this service.
type StoredNotification struct {
	ID        int64
	UserID    int64
	Type      NotificationType
	Title     string
	Message   string
	Metadata  map[string]string
	IsRead    bool
	CreatedAt time.Time
}
