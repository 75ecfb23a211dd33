package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/middleware"
	"offline-gateway/internal/protocol"
	"offline-gateway/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 64 << 10

// MessageDispatcher handles raw inbound protocol messages.
type MessageDispatcher interface {
	DispatchJSON(ctx context.Context, raw []byte) error
}

// SurfaceRegistry tracks the connected surfaces.
type SurfaceRegistry interface {
	Register(client realtime.Client)
	Unregister(client realtime.Client)
}

// wsClient implements realtime.Client by wrapping a websocket connection.
type wsClient struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) ID() string { return c.id }

func (c *wsClient) Send(message []byte) bool {
	if c == nil || c.conn == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return false
	}
	return true
}

func (c *wsClient) Focus() bool {
	msg, err := json.Marshal(protocol.NewFocus())
	if err != nil {
		return false
	}
	return c.Send(msg)
}

func (c *wsClient) Close() {
	if c != nil && c.conn != nil {
		_ = c.conn.Close()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Surfaces are authenticated by token; allow upgrade from any origin here
		return true
	},
}

// WebSocketHandler upgrades the connection, registers the surface and feeds
// its messages to the dispatcher.
// It requires JWT middleware to have set the client id in context.
func WebSocketHandler(registry SurfaceRegistry, dispatcher MessageDispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString(middleware.ClientIDKey)
		if clientID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Surface not authorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Warn("Websocket upgrade failed", logfields.ClientID(clientID), logfields.Error(err))
			return
		}

		client := &wsClient{id: clientID, conn: conn}
		registry.Register(client)
		slog.Info("Surface connected", logfields.ClientID(clientID))

		// Heartbeat: send periodic pings; close on error
		pingTicker := time.NewTicker(30 * time.Second)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-pingTicker.C:
					if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
						// ping failed; reader loop will exit on next error
						return
					}
				}
			}
		}()
		defer func() {
			close(done)
			pingTicker.Stop()
			registry.Unregister(client)
			client.Close()
			slog.Info("Surface disconnected", logfields.ClientID(clientID))
		}()

		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})

		ctx := c.Request.Context()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if err := dispatcher.DispatchJSON(ctx, raw); err != nil {
				slog.Warn("Rejected surface message", logfields.ClientID(clientID), logfields.Error(err))
			}
		}
	}
}
