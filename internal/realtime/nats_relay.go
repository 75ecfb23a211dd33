package realtime

import (
	"fmt"
	"log/slog"

	"offline-gateway/internal/logfields"

	"github.com/nats-io/nats.go"
)

// Publisher is the subset of *nats.Conn used by the relay.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSRelay republishes every outbound event on a NATS subject so that
// surfaces outside this process can observe it.
type NATSRelay struct {
	pub     Publisher
	subject string
}

// NewNATSRelay wraps a publisher.
func NewNATSRelay(pub Publisher, subject string) *NATSRelay {
	return &NATSRelay{pub: pub, subject: subject}
}

// ConnectNATS dials url and returns a relay plus the connection to close on shutdown.
func ConnectNATS(url, subject string) (*NATSRelay, *nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("offline-gateway"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS relay connected", slog.String("url", url), slog.String("subject", subject))
	return NewNATSRelay(conn, subject), conn, nil
}

func (r *NATSRelay) Broadcast(message []byte) {
	if err := r.pub.Publish(r.subject, message); err != nil {
		slog.Warn("NATS publish failed", slog.String("subject", r.subject), logfields.Error(err))
	}
}

var _ Publisher = (*nats.Conn)(nil)
