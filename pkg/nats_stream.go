package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStream is a durable JetStream consumer. Lifecycle events published
// while the service is down are delivered once it comes back.
type NATSStream struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	cc       jetstream.ConsumeContext
	logger   aqm.Logger
}

type NATSStreamConfig struct {
	URL          string
	StreamName   string        // e.g. "ORDERS_LIFECYCLE"
	Topic        string        // e.g. "orders.lifecycle"
	ConsumerName string        // durable consumer shared by service replicas
	MaxAge       time.Duration // retention window
}

func NewNATSStream(ctx context.Context, cfg NATSStreamConfig, logger aqm.Logger) (*NATSStream, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	conn, err := connectNATS(cfg.URL, cfg.ConsumerName)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.Topic},
		MaxAge:   cfg.MaxAge,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.StreamName, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		FilterSubject: cfg.Topic,
		MaxDeliver:    5,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create/update consumer %s: %w", cfg.ConsumerName, err)
	}

	return &NATSStream{
		conn:     conn,
		js:       js,
		consumer: consumer,
		logger:   logger,
	}, nil
}

func (s *NATSStream) Publish(ctx context.Context, topic string, msg []byte) error {
	if _, err := s.js.Publish(ctx, topic, msg); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// Subscribe implements events.Subscriber. The topic is fixed by the
// consumer filter, so the argument is only used for logging.
func (s *NATSStream) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	cc, err := s.consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			s.logger.Errorf("stream handler for %s failed: %v", topic, err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("cannot consume %s: %w", topic, err)
	}
	s.cc = cc
	return nil
}

func (s *NATSStream) Close() error {
	if s.cc != nil {
		s.cc.Stop()
	}
	s.conn.Close()
	return nil
}
