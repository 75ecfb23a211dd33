package models

import (
	"encoding/json"
	"net/http"
)

// SyncQueueItem is an action captured by the UI while offline.
type SyncQueueItem struct {
	URL    string          `json:"url"`
	Method string          `json:"method,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// HTTPMethod returns the replay method, POST when unset.
func (i SyncQueueItem) HTTPMethod() string {
	if i.Method == "" {
		return http.MethodPost
	}
	return i.Method
}
