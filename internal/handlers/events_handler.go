package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/notify"
	"offline-gateway/internal/syncqueue"

	"github.com/gin-gonic/gin"
)

// EventRequest is the payload of a sync or periodic-sync event.
type EventRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// Drainer replays the offline action queue.
type Drainer interface {
	Drain(ctx context.Context) syncqueue.Result
}

// Reminder shows the daily reminder.
type Reminder interface {
	ShowDailyReminder(ctx context.Context) error
}

// SyncEvent runs a background sync for the given tag
// POST /sw/events/sync
func SyncEvent(queue Drainer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Tag is required."})
			return
		}
		if req.Tag != syncqueue.SyncTag {
			c.JSON(http.StatusNotFound, gin.H{"error": "No sync registered for tag"})
			return
		}

		c.JSON(http.StatusOK, queue.Drain(c.Request.Context()))
	}
}

// PeriodicEvent runs a periodic sync for the given tag
// POST /sw/events/periodic
func PeriodicEvent(reminder Reminder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Tag is required."})
			return
		}
		if req.Tag != notify.DailyReminderTag {
			c.JSON(http.StatusNotFound, gin.H{"error": "No periodic sync registered for tag"})
			return
		}

		if err := reminder.ShowDailyReminder(c.Request.Context()); err != nil {
			slog.Warn("Daily reminder failed", logfields.Tag(req.Tag), logfields.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to show reminder"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "shown"})
	}
}
