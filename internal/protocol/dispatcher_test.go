package protocol

import (
	"context"
	"encoding/json"
	"testing"

	"offline-gateway/internal/models"

	"github.com/stretchr/testify/require"
)

type recordingQueue struct{ items [][]models.SyncQueueItem }

func (q *recordingQueue) Submit(_ context.Context, items []models.SyncQueueItem) {
	q.items = append(q.items, items)
}

type recordingScheduler struct{ reqs []models.NotificationRequest }

func (s *recordingScheduler) Schedule(req models.NotificationRequest) { s.reqs = append(s.reqs, req) }

type recordingActivator struct{ keys, actions []string }

func (a *recordingActivator) Activate(_ context.Context, key, action string) error {
	a.keys = append(a.keys, key)
	a.actions = append(a.actions, action)
	return nil
}

func newDispatcher() (*Dispatcher, *recordingQueue, *recordingScheduler, *recordingActivator) {
	q := &recordingQueue{}
	s := &recordingScheduler{}
	a := &recordingActivator{}
	return &Dispatcher{Queue: q, Scheduler: s, Activator: a}, q, s, a
}

func TestDispatch_QueueSync(t *testing.T) {
	d, q, _, _ := newDispatcher()
	raw := `{"type":"QUEUE_SYNC","queue":[{"url":"/a","data":{"x":1}},{"url":"/b","method":"PUT","data":{"x":2}}]}`
	require.NoError(t, d.DispatchJSON(context.Background(), []byte(raw)))

	require.Len(t, q.items, 1)
	require.Len(t, q.items[0], 2)
	require.Equal(t, "/a", q.items[0][0].URL)
	require.Equal(t, "POST", q.items[0][0].HTTPMethod())
	require.JSONEq(t, `{"x":1}`, string(q.items[0][0].Data))
	require.Equal(t, "PUT", q.items[0][1].HTTPMethod())
}

func TestDispatch_QueueSyncWithoutQueueClears(t *testing.T) {
	d, q, _, _ := newDispatcher()
	require.NoError(t, d.DispatchJSON(context.Background(), []byte(`{"type":"QUEUE_SYNC"}`)))
	require.Len(t, q.items, 1)
	require.NotNil(t, q.items[0])
	require.Empty(t, q.items[0])
}

func TestDispatch_ScheduleNotification(t *testing.T) {
	d, _, s, _ := newDispatcher()
	raw := `{"type":"SCHEDULE_NOTIFICATION","notification":{"id":"n1","title":"Standup","body":"In 5 minutes","tag":"meetings","timestamp":1760000000000}}`
	require.NoError(t, d.DispatchJSON(context.Background(), []byte(raw)))
	require.Equal(t, []models.NotificationRequest{{
		ID: "n1", Title: "Standup", Body: "In 5 minutes", Tag: "meetings", Timestamp: 1760000000000,
	}}, s.reqs)

	require.ErrorIs(t, d.DispatchJSON(context.Background(), []byte(`{"type":"SCHEDULE_NOTIFICATION"}`)), ErrInvalidMessage)
}

func TestDispatch_NotificationClick(t *testing.T) {
	d, _, _, a := newDispatcher()
	require.NoError(t, d.DispatchJSON(context.Background(), []byte(`{"type":"NOTIFICATION_CLICK","key":"meetings","action":"open"}`)))
	require.Equal(t, []string{"meetings"}, a.keys)
	require.Equal(t, []string{"open"}, a.actions)
}

func TestDispatch_Unknown(t *testing.T) {
	d, _, _, _ := newDispatcher()
	err := d.DispatchJSON(context.Background(), []byte(`{"type":"SKIP_WAITING"}`))
	require.ErrorIs(t, err, ErrUnknownMessage)

	require.ErrorIs(t, d.DispatchJSON(context.Background(), []byte(`not json`)), ErrInvalidMessage)
}

func TestOutboundShapes(t *testing.T) {
	b, err := json.Marshal(NewSyncComplete(1))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"SYNC_COMPLETE","failed":1}`, string(b))

	b, err = json.Marshal(NewNotificationShown("n1"))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"NOTIFICATION_SHOWN","id":"n1"}`, string(b))
}
