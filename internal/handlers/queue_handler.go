package handlers

import (
	"net/http"

	"offline-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

// QueueSnapshotter exposes the current offline action queue.
type QueueSnapshotter interface {
	Snapshot() []models.SyncQueueItem
}

// GetQueue returns the actions still waiting to be replayed
// GET /sw/queue
func GetQueue(queue QueueSnapshotter) gin.HandlerFunc {
	return func(c *gin.Context) {
		items := queue.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"queue":  items,
			"length": len(items),
		})
	}
}
