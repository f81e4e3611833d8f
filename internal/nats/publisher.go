// Package nats notifies downstream consumers about applied sync changes.
package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"sheet-sync/internal/models"
)

// Notification is the message sent after a batch of changes lands in the
// store, from a client push or a consistency cleanup.
type Notification struct {
	Source    string               `json:"source"`
	Timestamp models.Millis        `json:"timestamp"`
	Changes   []models.ChangeEntry `json:"changes"`
}

// Publisher publishes change notifications to NATS.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *logrus.Logger
}

// NewPublisher connects to NATS and returns a Publisher.
func NewPublisher(url, subject string, maxReconnect int, reconnectWait time.Duration, logger *logrus.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(maxReconnect),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Warn("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Infof("Connected to NATS at %s", url)

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}, nil
}

// PublishChanges sends one notification for a batch of applied entries.
// A nil Publisher is a no-op so callers need not guard the disabled case.
func (p *Publisher) PublishChanges(source string, changes []models.ChangeEntry) error {
	if p == nil || len(changes) == 0 {
		return nil
	}
	data, err := json.Marshal(Notification{
		Source:    source,
		Timestamp: models.NowMillis(),
		Changes:   changes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	p.logger.Debugf("Published %d changes from %s", len(changes), source)
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
