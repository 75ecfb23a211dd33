package models

import (
	"net/http"
	"time"
)

// RequestKey is the canonical identity of a cacheable request.
type RequestKey struct {
	Method string
	URL    string
}

// String renders the key as "METHOD URL".
func (k RequestKey) String() string {
	return k.Method + " " + k.URL
}

// CacheGeneration is a named, versioned container of cached entries.
type CacheGeneration struct {
	Name      string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for CacheGeneration
func (CacheGeneration) TableName() string {
	return "cache_generations"
}

// CachedEntry is a persisted response stored under one generation.
type CachedEntry struct {
	ID           uint         `gorm:"primaryKey"`
	Generation   string       `gorm:"not null;uniqueIndex:idx_generation_request_key"`
	RequestKey   string       `gorm:"column:request_key;not null;uniqueIndex:idx_generation_request_key;index"`
	Method       string       `gorm:"not null"`
	URL          string       `gorm:"column:url;not null"`
	Status       int          `gorm:"not null"`
	Header       http.Header  `gorm:"serializer:json"`
	Body         []byte
	ResponseType ResponseType `gorm:"column:response_type"`
	StoredAt     time.Time
}

// TableName specifies the table name for CachedEntry
func (CachedEntry) TableName() string {
	return "cached_entries"
}

// Response converts the row back into a Response.
func (e *CachedEntry) Response() *Response {
	return &Response{
		Status:   e.Status,
		Header:   e.Header.Clone(),
		Body:     append([]byte(nil), e.Body...),
		URL:      e.URL,
		Type:     e.ResponseType,
		StoredAt: e.StoredAt,
	}
}
