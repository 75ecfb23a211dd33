package realtime

import (
	"encoding/json"
	"fmt"
)

// Fanout broadcasts to several broadcasters in order.
type Fanout []Broadcaster

func (f Fanout) Broadcast(message []byte) {
	for _, b := range f {
		if b != nil {
			b.Broadcast(message)
		}
	}
}

// BroadcastJSON marshals v and hands it to b.
func BroadcastJSON(b Broadcaster, v any) error {
	if b == nil {
		return nil
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	b.Broadcast(bytes)
	return nil
}
