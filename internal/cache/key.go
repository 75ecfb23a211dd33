package cache

import (
	"net/http"
	"net/url"

	"offline-gateway/internal/models"
)

// KeyFor builds the canonical key for a request. The fragment never
// reaches the network so it is not part of the identity.
func KeyFor(method string, u *url.URL) models.RequestKey {
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	if method == "" {
		method = http.MethodGet
	}
	return models.RequestKey{Method: method, URL: c.String()}
}

// Cacheable reports whether a request with this method may be stored.
func Cacheable(method string) bool {
	return method == "" || method == http.MethodGet
}
