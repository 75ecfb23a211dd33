package interceptor

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"offline-gateway/internal/network"
)

// IsNavigation reports whether r loads a full document.
func IsNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// Target maps an incoming request onto the origin. The request path is
// joined beneath the origin's path, so a dashboard hosted under a
// sub-directory keeps its prefix.
func (i *Interceptor) Target(r *http.Request) *url.URL {
	u := *i.origin
	u.Path = strings.TrimSuffix(i.origin.Path, "/") + r.URL.Path
	u.RawPath = ""
	if r.URL.RawPath != "" {
		u.RawPath = strings.TrimSuffix(i.origin.EscapedPath(), "/") + r.URL.RawPath
	}
	u.RawQuery = r.URL.RawQuery
	u.Fragment = ""
	return &u
}

// FromHTTP converts an incoming request into the request issued upstream.
func (i *Interceptor) FromHTTP(r *http.Request) (*network.Request, error) {
	var body []byte
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		body = b
	}
	header := r.Header.Clone()
	return &network.Request{
		Method:   r.Method,
		URL:      i.Target(r),
		Header:   header,
		Body:     body,
		Navigate: IsNavigation(r),
	}, nil
}
