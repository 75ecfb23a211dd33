package metrics

// FetchOutcome labels the strategy the interceptor used for a request.
type FetchOutcome string

const (
	FetchPassthrough FetchOutcome = "passthrough"
	FetchHit         FetchOutcome = "hit"
	FetchMiss        FetchOutcome = "miss"
	FetchFallback    FetchOutcome = "fallback"
	FetchFailed      FetchOutcome = "failed"
)

// ErrorKind labels failures that are swallowed rather than returned.
type ErrorKind string

const (
	ErrorRevalidate   ErrorKind = "revalidate"
	ErrorCacheWrite   ErrorKind = "cache_write"
	ErrorCacheRead    ErrorKind = "cache_read"
	ErrorRegistration ErrorKind = "sync_registration"
	ErrorBroadcast    ErrorKind = "broadcast"
)

// NotificationEvent labels transitions of a scheduled notification.
type NotificationEvent string

const (
	NotificationArmed    NotificationEvent = "armed"
	NotificationReplaced NotificationEvent = "replaced"
	NotificationDropped  NotificationEvent = "dropped"
	NotificationFired    NotificationEvent = "fired"
)

// Recorder is the observability hook used by the gateway components.
// Implementations must tolerate being called from many goroutines.
type Recorder interface {
	IncFetch(outcome FetchOutcome)
	IncSuppressed(kind ErrorKind)
	ObserveDrain(succeeded, failed int)
	SetQueueDepth(n int)
	IncNotification(event NotificationEvent)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not wired).
type NoopRecorder struct{}

func (NoopRecorder) IncFetch(FetchOutcome)             {}
func (NoopRecorder) IncSuppressed(ErrorKind)           {}
func (NoopRecorder) ObserveDrain(int, int)             {}
func (NoopRecorder) SetQueueDepth(int)                 {}
func (NoopRecorder) IncNotification(NotificationEvent) {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
