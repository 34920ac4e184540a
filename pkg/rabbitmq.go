package pkg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes events to a topic exchange, using the event
// topic as routing key.
type RabbitPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &RabbitPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.PublishWithContext(ctx, p.exchange, topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("cannot publish to %s: %w", topic, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil && err != amqp.ErrClosed {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// RabbitSubscriber consumes from a durable queue bound to the exchange.
// Replicas sharing the queue name share deliveries.
type RabbitSubscriber struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	logger   aqm.Logger
}

func NewRabbitSubscriber(url, exchange, queue string, logger aqm.Logger) (*RabbitSubscriber, error) {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err := ch.Qos(10, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &RabbitSubscriber{conn: conn, ch: ch, exchange: exchange, queue: queue, logger: logger}, nil
}

// Subscribe binds the queue to topic and handles deliveries until ctx is
// done. Failed deliveries are dropped after logging, not requeued.
func (s *RabbitSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	q, err := s.ch.QueueDeclare(s.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", s.queue, err)
	}

	if err := s.ch.QueueBind(q.Name, topic, s.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", q.Name, topic, err)
	}

	deliveries, err := s.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume from %s: %w", q.Name, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					s.logger.Info("RabbitMQ delivery channel closed", "queue", q.Name)
					return
				}
				if err := handler(ctx, d.Body); err != nil {
					s.logger.Errorf("handler for %s failed: %v", topic, err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()
	return nil
}

func (s *RabbitSubscriber) Close() error {
	if err := s.ch.Close(); err != nil && err != amqp.ErrClosed {
		s.conn.Close()
		return err
	}
	return s.conn.Close()
}
