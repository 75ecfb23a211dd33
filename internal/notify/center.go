package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/models"
	"offline-gateway/internal/protocol"
	"offline-gateway/internal/realtime"

	"github.com/google/uuid"
)

// Text of the reminder shown by the daily trigger, and the periodic-sync
// tag that triggers it.
const (
	DailyReminderTag   = "daily-check"
	DailyReminderTitle = "Daily Check"
	DailyReminderBody  = "Time to review your goals for today!"
)

// Surfaces enumerates the open UI surfaces.
type Surfaces interface {
	Clients() []realtime.Client
}

// Opener opens a new UI surface at target.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// CenterOptions configures a Center.
type CenterOptions struct {
	Broadcaster realtime.Broadcaster
	Surfaces    Surfaces
	Opener      Opener
	EntryPoint  string
	Icon        string
	Badge       string
}

// Center shows, closes and activates notifications. Showing one means
// broadcasting it to the surfaces, which render it.
type Center struct {
	bus        realtime.Broadcaster
	surfaces   Surfaces
	opener     Opener
	entryPoint string
	icon       string
	badge      string

	mu    sync.Mutex
	shown map[string]models.Notification
	order []string
}

// NewCenter returns a Center with nothing shown.
func NewCenter(opts CenterOptions) *Center {
	return &Center{
		bus:        opts.Broadcaster,
		surfaces:   opts.Surfaces,
		opener:     opts.Opener,
		entryPoint: opts.EntryPoint,
		icon:       opts.Icon,
		badge:      opts.Badge,
		shown:      make(map[string]models.Notification),
	}
}

// Show displays n and returns its key. A notification with the same tag
// replaces the one already shown; untagged notifications get a fresh key.
func (c *Center) Show(_ context.Context, n models.Notification) (string, error) {
	n.Key = n.Tag
	if n.Key == "" {
		n.Key = uuid.NewString()
	}
	c.mu.Lock()
	if _, ok := c.shown[n.Key]; !ok {
		c.order = append(c.order, n.Key)
	}
	c.shown[n.Key] = n
	c.mu.Unlock()

	if err := realtime.BroadcastJSON(c.bus, protocol.NewShowNotification(n)); err != nil {
		return "", err
	}
	return n.Key, nil
}

// Fire shows a scheduled notification with the open/dismiss actions and
// then tells every surface it was shown.
func (c *Center) Fire(ctx context.Context, req models.NotificationRequest) {
	_, err := c.Show(ctx, models.Notification{
		Title:              req.Title,
		Body:               req.Body,
		Tag:                req.Tag,
		Icon:               c.icon,
		Badge:              c.badge,
		RequireInteraction: true,
		Actions: []models.NotificationAction{
			{Action: models.ActionOpen, Title: "Open Dashboard"},
			{Action: models.ActionDismiss, Title: "Dismiss"},
		},
	})
	if err != nil {
		slog.Warn("Failed to show notification", logfields.NotificationID(req.ID), logfields.Error(err))
		return
	}
	if err := realtime.BroadcastJSON(c.bus, protocol.NewNotificationShown(req.ID)); err != nil {
		slog.Warn("Failed to broadcast notification shown", logfields.NotificationID(req.ID), logfields.Error(err))
	}
}

// ShowDailyReminder shows the fixed daily reminder.
func (c *Center) ShowDailyReminder(ctx context.Context) error {
	_, err := c.Show(ctx, models.Notification{
		Title: DailyReminderTitle,
		Body:  DailyReminderBody,
		Icon:  c.icon,
		Badge: c.badge,
	})
	return err
}

// Close removes a shown notification. It reports whether it was shown.
func (c *Center) Close(key string) bool {
	c.mu.Lock()
	_, ok := c.shown[key]
	if ok {
		delete(c.shown, key)
		for i, k := range c.order {
			if k == key {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()

	if ok {
		if err := realtime.BroadcastJSON(c.bus, protocol.NewNotificationClosed(key)); err != nil {
			slog.Warn("Failed to broadcast notification closed", logfields.Tag(key), logfields.Error(err))
		}
	}
	return ok
}

// Activate handles a click on a notification. The notification is closed;
// "open" and plain body clicks then focus the first open surface, or open
// the entry point when none is open.
func (c *Center) Activate(ctx context.Context, key, action string) error {
	c.Close(key)
	if action != models.ActionOpen && action != "" {
		return nil
	}
	if c.surfaces != nil {
		for _, client := range c.surfaces.Clients() {
			if client.Focus() {
				slog.Debug("Focused surface for notification", logfields.ClientID(client.ID()))
				return nil
			}
		}
	}
	if c.opener == nil {
		return errors.New("no surface open and no opener configured")
	}
	return c.opener.Open(ctx, c.entryPoint)
}

// Shown returns the notifications currently displayed, oldest first.
func (c *Center) Shown() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.shown[k])
	}
	return out
}
