package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// SubjectImportCompleted is published after every finished bulk import.
const SubjectImportCompleted = "product.import.completed"

// ImportCompletedEvent represents the event published when a bulk import finishes
type ImportCompletedEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	TenantID      string    `json:"tenant_id"`
	UserID        string    `json:"user_id,omitempty"`
	SessionID     string    `json:"session_id"`
	FileName      string    `json:"file_name"`
	Rows          int       `json:"rows"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Failed        int       `json:"failed"`
	MappingFailed int       `json:"mapping_failed"`
	Success       bool      `json:"success"`
	Timestamp     time.Time `json:"timestamp"`
}

// conn is the part of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Publisher publishes import events to NATS
type Publisher struct {
	conn   conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS. An empty URL yields a publisher that drops
// every event.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	entry := logger.WithField("component", "events.publisher")
	if natsURL == "" {
		entry.Info("NATS_URL not set, import events disabled")
		return &Publisher{logger: entry}, nil
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("product-sheets-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	entry.WithField("url", nc.ConnectedUrl()).Info("Connected to NATS")
	return &Publisher{conn: nc, logger: entry}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// PublishImportCompleted publishes a product.import.completed event.
func (p *Publisher) PublishImportCompleted(ctx context.Context, event ImportCompletedEvent) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if event.EventID == "" {
		event.EventID = uuid.New().String()
	}
	event.EventType = SubjectImportCompleted
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(SubjectImportCompleted, data); err != nil {
		p.logger.WithError(err).WithField("session_id", event.SessionID).Error("Failed to publish import event")
		return fmt.Errorf("failed to publish %s: %w", SubjectImportCompleted, err)
	}

	p.logger.WithFields(logrus.Fields{
		"tenant_id":  event.TenantID,
		"session_id": event.SessionID,
		"created":    event.Created,
		"failed":     event.Failed,
	}).Debug("Published import event")
	return nil
}
