package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/models"
	"offline-gateway/internal/network"

	"github.com/gin-gonic/gin"
)

// RequestFetcher answers intercepted requests.
type RequestFetcher interface {
	FromHTTP(r *http.Request) (*network.Request, error)
	Fetch(ctx context.Context, req *network.Request) (*models.Response, error)
}

// Intercept sends every unrouted request through the fetch strategy.
func Intercept(fetcher RequestFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := fetcher.FromHTTP(c.Request)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request"})
			return
		}

		resp, err := fetcher.Fetch(c.Request.Context(), req)
		if err != nil {
			slog.Warn("Upstream fetch failed",
				logfields.Method(req.Method),
				logfields.URL(req.URL.String()),
				logfields.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream unavailable"})
			return
		}

		writeResponse(c, resp)
	}
}

func writeResponse(c *gin.Context, resp *models.Response) {
	header := c.Writer.Header()
	for k, values := range resp.Header {
		header[k] = append([]string(nil), values...)
	}
	c.Status(resp.Status)
	if c.Request.Method == http.MethodHead {
		return
	}
	_, _ = c.Writer.Write(resp.Body)
}
