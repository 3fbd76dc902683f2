package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is prepended to the event type to form the publish subject.
const SubjectPrefix = "voice.events."

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSRepo publishes each event as JSON on voice.events.<type>.
type NATSRepo struct {
	pub  publisher
	conn *nats.Conn
}

func NewNATSRepo(url, token string, logger *slog.Logger) (*NATSRepo, error) {
	opts := []nats.Option{
		nats.Name("foreclosure-voice"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSRepo{pub: nc, conn: nc}, nil
}

func (r *NATSRepo) Append(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return r.pub.Publish(SubjectPrefix+string(e.Type), payload)
}

// Close drains pending publishes before closing the connection.
func (r *NATSRepo) Close() {
	if r.conn == nil {
		return
	}
	if err := r.conn.Drain(); err != nil {
		r.conn.Close()
	}
}
