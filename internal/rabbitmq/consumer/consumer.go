// Package consumer owns the RabbitMQ connection and subscription channel for
// the booking-notifications queue. It delivers one message at a time
// (prefetch 1), applies the handler's ack/drop/requeue decision, and on any
// connection-level failure tears the session down and reconnects after a
// fixed delay, without limit.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/zlog"
)

// DefaultReconnectDelay is the fixed pause between reconnect attempts.
const DefaultReconnectDelay = 5 * time.Second

// Outcome is the handler's decision for a delivered message.
type Outcome int

const (
	// Ack removes the message after successful processing.
	Ack Outcome = iota
	// Drop removes the message without retry (malformed or invalid).
	Drop
	// Requeue returns the message to the queue for immediate redelivery.
	Requeue
)

func (o Outcome) String() string {
	switch o {
	case Drop:
		return "drop"
	case Requeue:
		return "requeue"
	default:
		return "ack"
	}
}

// Handler processes one raw message body and decides its fate.
type Handler func(ctx context.Context, body []byte) Outcome

// connection and channel mirror the slice of amqp091 the manager uses, so a
// broker session can be faked in tests.
type connection interface {
	Channel() (channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	Close() error
}

type channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (channel, error) {
	return c.Connection.Channel()
}

func dial(url string) (connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

// Manager owns the broker connection and channel exclusively; nothing else
// in the process touches them.
type Manager struct {
	url            string
	queue          string
	reconnectDelay time.Duration
	handler        Handler

	dial func(url string) (connection, error)
}

// NewManager creates a manager consuming queue at url, handing each message
// to handler. A non-positive reconnectDelay falls back to
// DefaultReconnectDelay.
func NewManager(url, queue string, reconnectDelay time.Duration, handler Handler) *Manager {
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}

	return &Manager{
		url:            url,
		queue:          queue,
		reconnectDelay: reconnectDelay,
		handler:        handler,
		dial:           dial,
	}
}

// Run consumes until ctx is cancelled. Every broker session that ends for
// any other reason is logged and replaced after the fixed reconnect delay —
// no backoff, no attempt cap.
func (m *Manager) Run(ctx context.Context) {
	for {
		if err := m.consumeOnce(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("broker session ended")
		}

		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("consumer stopped")
			return
		}

		zlog.Logger.Info().Dur("delay", m.reconnectDelay).Msg("reconnecting to broker")

		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("consumer stopped")
			return
		case <-time.After(m.reconnectDelay):
		}
	}
}

// consumeOnce runs a single broker session: connect, declare, consume until
// the connection dies or ctx is cancelled. The deferred closes run channel
// first, then connection.
func (m *Manager) consumeOnce(ctx context.Context) error {
	conn, err := m.dial(m.url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	// One unacked message at a time: the broker withholds the next delivery
	// until the current one is settled.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	q, err := ch.QueueDeclare(m.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	zlog.Logger.Info().
		Str("queue", q.Name).
		Int("messages", q.Messages).
		Int("consumers", q.Consumers).
		Msg("connected to queue")

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr, ok := <-closed:
			if !ok || amqpErr == nil {
				return errors.New("connection closed")
			}
			return fmt.Errorf("connection closed: %w", amqpErr)
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery stream closed")
			}
			m.settle(ctx, d)
		}
	}
}

// settle applies the handler's outcome to the delivery. Drop acknowledges
// just like Ack — removal from the queue — the difference is only in intent,
// so it is logged.
func (m *Manager) settle(ctx context.Context, d amqp.Delivery) {
	outcome := m.handler(ctx, d.Body)

	switch outcome {
	case Requeue:
		if err := d.Nack(false, true); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to nack message")
			return
		}
		zlog.Logger.Info().Msg("message requeued for retry")
	case Drop:
		if err := d.Ack(false); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to ack message")
			return
		}
		zlog.Logger.Info().Msg("message dropped")
	default:
		if err := d.Ack(false); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to ack message")
		}
	}
}
