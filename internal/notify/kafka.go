package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const consumerGroup = "campuskart-notifications"

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes outbox events to the notification topic. Writes go through a circuit
// breaker so a dead broker fails each tick fast instead of blocking on timeouts.
type KafkaSink struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewKafkaSink(topic string, brokers ...string) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSink(w)
}

func newKafkaSink(w messageWriter) *KafkaSink {
	settings := gobreaker.Settings{
		Name:        "notification-publisher",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	}
	return &KafkaSink{writer: w, breaker: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

func (s *KafkaSink) Deliver(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Effect.Recipient), // per-recipient ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	_, err = s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.writer.WriteMessages(ctx, msg)
	})
	return err
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer turns notification events from Kafka into mailbox entries.
type Consumer struct {
	sink   Sink
	reader messageReader
}

func NewConsumer(sink Sink, topic string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{sink: sink, reader: reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event domain.OutboxEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing message at offset %d: %v", m.Offset, err)
		return
	}
	if event.ID == "" || event.Effect.Recipient == "" {
		log.Printf("skipping notification event without id or recipient at offset %d", m.Offset)
		return
	}

	if err := c.sink.Deliver(ctx, &event); err != nil {
		log.Printf("failed to store notification %v: %v", event.ID, err)
	}
}
