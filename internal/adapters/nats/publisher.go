package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ww1air/frontlines/internal/core/domain"
)

const (
	// StreamName is the JetStream stream holding front line events.
	StreamName = "FRONTLINES"
	// GeneratedSubjects matches the generated events of every theater.
	GeneratedSubjects = "frontlines.generated.>"
)

var subjectToken = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// Subject returns the subject carrying the generated events of theater.
func Subject(theater string) string {
	return "frontlines.generated." + subjectToken.Replace(theater)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{GeneratedSubjects},
		Retention: nats.InterestPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFrontlineGenerated announces a period whose outputs were written.
func (p *Publisher) PublishFrontlineGenerated(ctx context.Context, event *domain.FrontlineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// Dedup window drops a republished period of the same run.
	_, err = p.js.Publish(Subject(event.Theater), data,
		nats.Context(ctx),
		nats.MsgId(event.RunID+":"+event.Period),
	)
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
