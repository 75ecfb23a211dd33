package notify

import (
	"time"

	"offline-gateway/internal/models"
)

// timerEntry is one armed notification.
type timerEntry struct {
	req    models.NotificationRequest
	fireAt time.Time
	seq    uint64
	index  int
}

// timerQueue is a container/heap min-heap ordered by fire time, then by
// arming order.
type timerQueue []*timerEntry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].fireAt.Equal(q[j].fireAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].fireAt.Before(q[j].fireAt)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}
