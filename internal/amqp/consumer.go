package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Domenick1991/seatbooking/internal/events"
)

const maxBackoff = 30 * time.Second

type Consumer struct {
	url   string
	queue string
	log   hclog.Logger
}

func NewConsumer(url, queue string, logger hclog.Logger) *Consumer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Consumer{url: url, queue: queue, log: logger.Named("amqp-consumer")}
}

// Consume delivers seat events to handler until ctx is done, reconnecting
// with exponential backoff when the broker goes away.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, events.SeatEvent) error) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("failed to dial broker", "error", err, "retry_in", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, handler)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, handler func(context.Context, events.SeatEvent) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handle(ctx, d, handler)
		}
	}
}

// handle acks processed messages and rejects bad ones without requeue so a
// poison message cannot spin the loop.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery, handler func(context.Context, events.SeatEvent) error) {
	event, err := events.Decode(d.Body)
	if err == nil {
		err = handler(ctx, event)
	}
	if err != nil {
		c.log.Error("handle message failed", "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
