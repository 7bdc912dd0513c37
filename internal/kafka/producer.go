package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/kafka-go"

	"github.com/Domenick1991/seatbooking/internal/events"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes seat events to the booking events topic. Booked seats are
// also sent to the notifications topic for the worker.
type Producer struct {
	brokers            []string
	writer             messageWriter
	eventsTopic        string
	notificationsTopic string
	log                hclog.Logger
}

func NewProducer(brokers []string, eventsTopic, notificationsTopic string, logger hclog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Producer{
		brokers:            brokers,
		writer:             writer,
		eventsTopic:        eventsTopic,
		notificationsTopic: notificationsTopic,
		log:                logger.Named("kafka"),
	}
}

func (p *Producer) messages(event events.SeatEvent) ([]kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now()
	msgs := make([]kafka.Message, 0, 2)
	if p.eventsTopic != "" {
		msgs = append(msgs, kafka.Message{Topic: p.eventsTopic, Key: []byte(event.Key()), Value: data, Time: now})
	}
	if event.Type == events.SeatBooked && p.notificationsTopic != "" {
		msgs = append(msgs, kafka.Message{Topic: p.notificationsTopic, Key: []byte(event.Key()), Value: data, Time: now})
	}
	return msgs, nil
}

func (p *Producer) Publish(ctx context.Context, event events.SeatEvent) error {
	msgs, err := p.messages(event)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	p.log.Debug("publishing to kafka", "type", event.Type, "seat_id", event.SeatID, "messages", len(msgs))
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.log.Info("connected to kafka", "partitions", len(partitions))
	return nil
}

var _ events.Publisher = (*Producer)(nil)
