package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TokenIssuer hands out surface tokens.
type TokenIssuer interface {
	Issue() (token, clientID string, err error)
}

// ClientResponse represents the surface registration response
type ClientResponse struct {
	Token    string `json:"token"`
	ClientID string `json:"clientId"`
}

// RegisterClient issues a token for a new UI surface
// POST /sw/clients
func RegisterClient(issuer TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, clientID, err := issuer.Issue()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusCreated, ClientResponse{
			Token:    token,
			ClientID: clientID,
		})
	}
}
