package models

// NotificationRequest is what the UI sends to schedule a notification.
// Timestamp is the absolute fire time in epoch milliseconds.
type NotificationRequest struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Tag       string `json:"tag,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Notification actions offered on scheduled notifications.
const (
	ActionOpen    = "open"
	ActionDismiss = "dismiss"
)

// NotificationAction is a button offered on a displayed notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is a notification being shown to the user.
type Notification struct {
	Key                string               `json:"key"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Tag                string               `json:"tag,omitempty"`
	Icon               string               `json:"icon,omitempty"`
	Badge              string               `json:"badge,omitempty"`
	RequireInteraction bool                 `json:"requireInteraction,omitempty"`
	Actions            []NotificationAction `json:"actions,omitempty"`
}
