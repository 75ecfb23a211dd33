package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyURL            = "url"
	KeyMethod         = "method"
	KeyCacheName      = "cache_name"
	KeyNotificationID = "notification_id"
	KeyTag            = "tag"
	KeyClientID       = "client_id"
	KeyQueueLen       = "queue_len"
	KeyFailed         = "failed"
	KeyJob            = "job"
	KeyError          = "error"
)

func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func CacheName(n string) slog.Attr       { return slog.String(KeyCacheName, n) }
func NotificationID(id string) slog.Attr { return slog.String(KeyNotificationID, id) }
func Tag(t string) slog.Attr             { return slog.String(KeyTag, t) }
func ClientID(id string) slog.Attr       { return slog.String(KeyClientID, id) }
func QueueLen(n int) slog.Attr           { return slog.Int(KeyQueueLen, n) }
func Failed(n int) slog.Attr             { return slog.Int(KeyFailed, n) }
func Job(name string) slog.Attr          { return slog.String(KeyJob, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
