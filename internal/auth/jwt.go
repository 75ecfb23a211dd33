// Package auth issues and validates the tokens UI surfaces present to the
// gateway's protected endpoints.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is how long a surface token stays valid.
const TokenTTL = 24 * time.Hour

// Claims represents the JWT claims
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies surface tokens with an HMAC secret.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewTokenIssuer returns an issuer for the given secret, issuer and audience.
func NewTokenIssuer(secret, issuer, audience string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

// Issue generates a token for a new surface and returns it with the
// surface's client id.
func (i *TokenIssuer) Issue() (token, clientID string, err error) {
	clientID = uuid.NewString()
	token, err = i.Generate(clientID)
	if err != nil {
		return "", "", err
	}
	return token, clientID, nil
}

// Generate generates a JWT token for the given client id
func (i *TokenIssuer) Generate(clientID string) (string, error) {
	now := i.now()
	claims := Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate validates a JWT token and returns the claims
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ClientID == "" {
		return nil, errors.New("token has no client id")
	}
	return claims, nil
}
