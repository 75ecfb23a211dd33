package models

import (
	"net/http"
	"time"
)

// ResponseType mirrors how the response relates to the dashboard origin.
type ResponseType string

const (
	// ResponseBasic is a same-origin response.
	ResponseBasic ResponseType = "basic"
	// ResponseCORS is a response served from another origin.
	ResponseCORS ResponseType = "cors"
)

// Response is a fully buffered HTTP response as seen by the gateway.
type Response struct {
	Status   int          `json:"status"`
	Header   http.Header  `json:"header"`
	Body     []byte       `json:"body"`
	URL      string       `json:"url"`
	Type     ResponseType `json:"type"`
	StoredAt time.Time    `json:"storedAt,omitempty"`
}

// OK reports whether the status is in the 2xx range.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status <= 299
}

// Clone returns a deep copy so cached bodies are never shared with callers.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}
