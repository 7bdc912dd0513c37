package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/kafka-go"

	"github.com/Domenick1991/seatbooking/internal/events"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const handleAttempts = 3

// Consumer delivers seat events from one topic. An offset is committed once
// the handler accepted the message or every retry failed.
type Consumer struct {
	reader     messageReader
	log        hclog.Logger
	retryDelay time.Duration
}

func NewConsumer(brokers []string, groupID, topic string, logger hclog.Logger) *Consumer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log:        logger.Named("kafka").With("topic", topic),
		retryDelay: time.Second,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is done or the reader fails. A failing handler is
// retried with backoff; messages that still fail, or do not decode as seat
// events, are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, events.SeatEvent) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		event, err := events.Decode(msg.Value)
		if err != nil {
			c.log.Warn("skipping undecodable message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		} else if err := c.handle(ctx, event, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("dropping message after retries", "type", event.Type, "seat_id", event.SeatID,
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, event events.SeatEvent, handler func(context.Context, events.SeatEvent) error) error {
	delay := c.retryDelay
	var err error
	for attempt := 1; attempt <= handleAttempts; attempt++ {
		if err = handler(ctx, event); err == nil {
			return nil
		}
		if attempt == handleAttempts {
			break
		}
		c.log.Warn("handler failed, retrying", "attempt", attempt, "retry_in", delay, "error", err)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return fmt.Errorf("handle %s for seat %d: %w", event.Type, event.SeatID, err)
}
