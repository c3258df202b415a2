package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/ww1air/frontlines/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. With an empty durable name every
// subscriber gets its own ephemeral consumer, so each API replica sees
// every event.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeFrontlineEvents delivers new generated events to handler.
// Undecodable messages are terminated; handler errors are redelivered.
func (s *Subscriber) SubscribeFrontlineEvents(ctx context.Context, handler func(ctx context.Context, event *domain.FrontlineEvent) error) error {
	opts := []nats.SubOpt{
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	}
	if s.durable != "" {
		opts = append(opts, nats.Durable(s.durable))
	}

	sub, err := s.js.Subscribe(GeneratedSubjects, func(msg *nats.Msg) {
		event, err := DecodeEvent(msg.Data)
		if err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, opts...)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// DecodeEvent parses a generated event payload.
func DecodeEvent(data []byte) (*domain.FrontlineEvent, error) {
	var event domain.FrontlineEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode front line event: %w", err)
	}
	if event.Theater == "" || event.Period == "" {
		return nil, fmt.Errorf("decode front line event: missing theater or period")
	}
	return &event, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
