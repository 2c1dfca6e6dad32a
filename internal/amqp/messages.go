package amqp

import (
	"encoding/json"
	"time"

	"expensehub/internal/core"
)

// NotificationMessage is the wire form of a queued notification. The worker
// persists one row per recipient; delivery channels stay outside this
// service.
type NotificationMessage struct {
	UserIDs   []int64           `json:"user_ids"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewNotificationMessage wraps a core notification for publishing.
func NewNotificationMessage(n core.Notification) *NotificationMessage {
	return &NotificationMessage{
		UserIDs:   n.UserIDs,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Metadata,
		Timestamp: time.Now(),
	}
}

// Notification converts the message back to its core form.
func (m *NotificationMessage) Notification() core.Notification {
	return core.Notification{
		UserIDs:  m.UserIDs,
		Type:     core.NotificationType(m.Type),
		Title:    m.Title,
		Message:  m.Message,
		Metadata: m.Metadata,
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
