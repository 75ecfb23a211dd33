package routes

import (
	"net/http"

	"offline-gateway/internal/handlers"
	"offline-gateway/internal/middleware"

	"github.com/gin-gonic/gin"
)

// QueueService is the offline action queue as seen by the router.
type QueueService interface {
	handlers.QueueSnapshotter
	handlers.Drainer
}

// Deps wires the router to the gateway components.
type Deps struct {
	Issuer     handlers.TokenIssuer
	Validator  middleware.TokenValidator
	Dispatcher handlers.MessageDispatcher
	Surfaces   handlers.SurfaceRegistry
	Queue      QueueService
	Reminder   handlers.Reminder
	Fetcher    handlers.RequestFetcher
	Metrics    http.Handler
}

// cors answers cross-origin calls from surfaces served elsewhere. It only
// covers the gateway's own endpoints.
func cors(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

func SetupRoutes(deps Deps) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// Health check endpoint
	ginRouter.GET("/health", cors, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Offline gateway is running",
		})
	})
	ginRouter.OPTIONS("/health", cors)
	if deps.Metrics != nil {
		ginRouter.GET("/metrics", cors, gin.WrapH(deps.Metrics))
		ginRouter.OPTIONS("/metrics", cors)
	}

	sw := ginRouter.Group("/sw", cors)
	{
		sw.OPTIONS("/*path")
		// Public: surfaces obtain their token here
		sw.POST("/clients", handlers.RegisterClient(deps.Issuer))
	}

	// Protected routes (surface token required)
	protectedRoutes := sw.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware(deps.Validator))
	{
		protectedRoutes.GET("/ws", handlers.WebSocketHandler(deps.Surfaces, deps.Dispatcher))
		protectedRoutes.POST("/messages", handlers.PostMessage(deps.Dispatcher))
		protectedRoutes.GET("/queue", handlers.GetQueue(deps.Queue))
		protectedRoutes.POST("/events/sync", handlers.SyncEvent(deps.Queue))
		protectedRoutes.POST("/events/periodic", handlers.PeriodicEvent(deps.Reminder))
	}

	// Everything else is a dashboard request and keeps the origin's own
	// CORS headers and preflight answers
	ginRouter.NoRoute(handlers.Intercept(deps.Fetcher))

	return ginRouter
}
