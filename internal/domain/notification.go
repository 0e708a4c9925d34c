package domain

import "time"

// NotificationType tags persisted notifications.
type NotificationType string

const (
	NotificationStatusChange NotificationType = "status_change"
	NotificationAssignment   NotificationType = "assignment"
)

// Notification is a per-user message shown in the notification center.
type Notification struct {
	ID        string
	UserID    string
	TicketID  *string
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}
