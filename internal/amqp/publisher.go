// Package amqp publishes and consumes seat events over RabbitMQ.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Domenick1991/seatbooking/internal/events"
)

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a channel and returns a function that closes the connection behind it.
type dialFunc func(url string) (channel, func() error, error)

func dialChannel(url string) (channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	return ch, conn.Close, nil
}

// Publisher sends each event as a persistent message to a durable queue. A
// connection is opened per publish.
type Publisher struct {
	url   string
	queue string
	dial  dialFunc
	log   hclog.Logger
}

func NewPublisher(url, queue string, logger hclog.Logger) *Publisher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Publisher{url: url, queue: queue, dial: dialChannel, log: logger.Named("amqp")}
}

func (p *Publisher) Publish(ctx context.Context, event events.SeatEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	defer func() {
		_ = ch.Close()
		_ = closeConn()
	}()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		MessageId:    fmt.Sprintf("%s-%s-%d", event.Type, event.Key(), event.OccurredAt.UnixNano()),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	p.log.Debug("published event", "type", event.Type, "seat_id", event.SeatID)
	return nil
}

var _ events.Publisher = (*Publisher)(nil)
