package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"offline-gateway/internal/models"
)

var (
	// ErrUnknownMessage is returned for messages with an unrecognised type tag.
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrInvalidMessage is returned for known messages missing a required field.
	ErrInvalidMessage = errors.New("invalid message")
)

// QueueReplacer receives QUEUE_SYNC snapshots. Submit must not wait for
// the queue to drain.
type QueueReplacer interface {
	Submit(ctx context.Context, items []models.SyncQueueItem)
}

// NotificationScheduler receives SCHEDULE_NOTIFICATION requests.
type NotificationScheduler interface {
	Schedule(req models.NotificationRequest)
}

// NotificationActivator receives NOTIFICATION_CLICK events.
type NotificationActivator interface {
	Activate(ctx context.Context, key, action string) error
}

// Dispatcher routes inbound messages to the component owning them.
type Dispatcher struct {
	Queue     QueueReplacer
	Scheduler NotificationScheduler
	Activator NotificationActivator
}

// DispatchJSON decodes raw and dispatches it.
func (d *Dispatcher) DispatchJSON(ctx context.Context, raw []byte) error {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrInvalidMessage, err)
	}
	return d.Dispatch(ctx, msg)
}

// Dispatch handles one decoded message.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Inbound) error {
	switch msg.Type {
	case TypeQueueSync:
		items := msg.Queue
		if items == nil {
			items = []models.SyncQueueItem{}
		}
		d.Queue.Submit(ctx, items)
		return nil
	case TypeScheduleNotification:
		if msg.Notification == nil {
			return fmt.Errorf("%w: SCHEDULE_NOTIFICATION without notification", ErrInvalidMessage)
		}
		if msg.Notification.ID == "" {
			return fmt.Errorf("%w: SCHEDULE_NOTIFICATION without id", ErrInvalidMessage)
		}
		d.Scheduler.Schedule(*msg.Notification)
		return nil
	case TypeNotificationClick:
		if msg.Key == "" {
			return fmt.Errorf("%w: NOTIFICATION_CLICK without key", ErrInvalidMessage)
		}
		return d.Activator.Activate(ctx, msg.Key, msg.Action)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}
