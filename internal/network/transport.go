package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"offline-gateway/internal/models"
)

// Request is an outbound request issued on behalf of the UI.
// Navigate marks a request that loads a full document.
type Request struct {
	Method   string
	URL      *url.URL
	Header   http.Header
	Body     []byte
	Navigate bool
}

// Transport issues requests to the network. A non-nil error means the
// request never produced a response; HTTP error statuses are not errors.
type Transport interface {
	Do(ctx context.Context, req *Request) (*models.Response, error)
}

// hopHeaders are dropped when forwarding.
var hopHeaders = []string{
	"Connection", "Proxy-Connection", "Keep-Alive", "Proxy-Authenticate",
	"Proxy-Authorization", "Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// HTTPTransport is a Transport backed by an *http.Client. Responses whose
// final URL has the same origin as Origin are typed basic.
type HTTPTransport struct {
	Client *http.Client
	Origin *url.URL
}

// NewHTTPTransport returns a transport for the given origin using client,
// or http.DefaultClient when client is nil.
func NewHTTPTransport(client *http.Client, origin *url.URL) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{Client: client, Origin: origin}
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*models.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", req.Method, req.URL, err)
	}
	for k, vv := range req.Header {
		for _, v := range vv {
			httpReq.Header.Add(k, v)
		}
	}
	for _, h := range hopHeaders {
		httpReq.Header.Del(h)
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", req.URL, err)
	}

	header := resp.Header.Clone()
	for _, h := range hopHeaders {
		header.Del(h)
	}
	header.Del("Content-Length")

	final := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL
	}
	return &models.Response{
		Status: resp.StatusCode,
		Header: header,
		Body:   data,
		URL:    final.String(),
		Type:   t.typeOf(final),
	}, nil
}

// Get issues a plain GET, used to pre-populate the cache.
func (t *HTTPTransport) Get(ctx context.Context, u *url.URL) (*models.Response, error) {
	return t.Do(ctx, &Request{Method: http.MethodGet, URL: u})
}

func (t *HTTPTransport) typeOf(u *url.URL) models.ResponseType {
	if SameOrigin(t.Origin, u) {
		return models.ResponseBasic
	}
	return models.ResponseCORS
}

// SameOrigin compares scheme and host of two URLs.
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Scheme == b.Scheme && a.Host == b.Host
}

var _ Transport = (*HTTPTransport)(nil)
