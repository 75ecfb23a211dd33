// Package protocol defines the type-tagged messages exchanged with UI surfaces.
package protocol

import "offline-gateway/internal/models"

// Inbound message types.
const (
	TypeQueueSync            = "QUEUE_SYNC"
	TypeScheduleNotification = "SCHEDULE_NOTIFICATION"
	TypeNotificationClick    = "NOTIFICATION_CLICK"
)

// Outbound message types.
const (
	TypeSyncComplete       = "SYNC_COMPLETE"
	TypeNotificationShown  = "NOTIFICATION_SHOWN"
	TypeShowNotification   = "SHOW_NOTIFICATION"
	TypeNotificationClosed = "NOTIFICATION_CLOSED"
	TypeFocus              = "FOCUS"
)

// Inbound is any message a UI surface posts to the gateway.
type Inbound struct {
	Type         string                      `json:"type"`
	Queue        []models.SyncQueueItem      `json:"queue,omitempty"`
	Notification *models.NotificationRequest `json:"notification,omitempty"`
	Key          string                      `json:"key,omitempty"`
	Action       string                      `json:"action,omitempty"`
}

// SyncComplete is emitted after every drain pass.
type SyncComplete struct {
	Type   string `json:"type"`
	Failed int    `json:"failed"`
}

// NewSyncComplete builds a SYNC_COMPLETE event.
func NewSyncComplete(failed int) SyncComplete {
	return SyncComplete{Type: TypeSyncComplete, Failed: failed}
}

// NotificationShown is emitted when a scheduled notification fires.
type NotificationShown struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NewNotificationShown builds a NOTIFICATION_SHOWN event.
func NewNotificationShown(id string) NotificationShown {
	return NotificationShown{Type: TypeNotificationShown, ID: id}
}

// ShowNotification asks surfaces to present a notification.
type ShowNotification struct {
	Type         string              `json:"type"`
	Notification models.Notification `json:"notification"`
}

// NewShowNotification builds a SHOW_NOTIFICATION event.
func NewShowNotification(n models.Notification) ShowNotification {
	return ShowNotification{Type: TypeShowNotification, Notification: n}
}

// NotificationClosed tells surfaces a notification is gone.
type NotificationClosed struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// NewNotificationClosed builds a NOTIFICATION_CLOSED event.
func NewNotificationClosed(key string) NotificationClosed {
	return NotificationClosed{Type: TypeNotificationClosed, Key: key}
}

// Focus asks one surface to bring itself to the front.
type Focus struct {
	Type string `json:"type"`
}

// NewFocus builds a FOCUS event.
func NewFocus() Focus { return Focus{Type: TypeFocus} }
