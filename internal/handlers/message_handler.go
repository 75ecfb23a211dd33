package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/middleware"
	"offline-gateway/internal/protocol"

	"github.com/gin-gonic/gin"
)

// PostMessage accepts one inbound protocol message over plain HTTP
// POST /sw/messages
func PostMessage(dispatcher MessageDispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMessageSize))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read message"})
			return
		}

		err = dispatcher.DispatchJSON(c.Request.Context(), raw)
		switch {
		case err == nil:
			c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		case errors.Is(err, protocol.ErrUnknownMessage), errors.Is(err, protocol.ErrInvalidMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Warn("Message handling failed", logfields.ClientID(c.GetString(middleware.ClientIDKey)), logfields.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle message"})
		}
	}
}
