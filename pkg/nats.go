package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := connectNATS(url, "ordering-publisher")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if err := p.conn.Publish(topic, msg); err != nil {
		return fmt.Errorf("cannot publish to %s: %w", topic, err)
	}
	return nil
}

// Close drains pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

type NATSSubscriber struct {
	conn   *nats.Conn
	queue  string
	logger aqm.Logger
}

// NewNATSSubscriber connects a subscriber. When queue is set, replicas of
// the service share deliveries through a NATS queue group.
func NewNATSSubscriber(url, queue string, logger aqm.Logger) (*NATSSubscriber, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	conn, err := connectNATS(url, "ordering-subscriber")
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: conn, queue: queue, logger: logger}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	cb := func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
			s.logger.Errorf("handler for %s failed: %v", topic, err)
		}
	}

	var err error
	if s.queue != "" {
		_, err = s.conn.QueueSubscribe(topic, s.queue, cb)
	} else {
		_, err = s.conn.Subscribe(topic, cb)
	}
	if err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", topic, err)
	}
	return nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

func connectNATS(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}
