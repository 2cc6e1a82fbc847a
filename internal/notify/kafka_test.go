package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository/memstore"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type fakeWriter struct {
	m        sync.Mutex
	err      error
	calls    int
	messages []kafkaGo.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	messages []kafkaGo.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafkaGo.Message, error) {
	if len(r.messages) == 0 {
		<-ctx.Done()
		return kafkaGo.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) Close() error { return nil }

func testEvent() *domain.OutboxEvent {
	return domain.OutboxEventsFor("o1", domain.Notify("u1", "o1", domain.NotificationPickupRequested,
		"Parcel pickup requested", "A delivery partner is coming to pick up the parcel for an order."), time.Now())[0]
}

func TestKafkaSink_KeysByRecipient(t *testing.T) {
	w := &fakeWriter{}
	sink := newKafkaSink(w)

	require.NoError(t, sink.Deliver(context.Background(), testEvent()))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "u1", string(w.messages[0].Key))
	assert.Equal(t, "event_type", w.messages[0].Headers[0].Key)

	var decoded domain.OutboxEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, domain.NotificationPickupRequested, decoded.Effect.Type)
}

func TestKafkaSink_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unreachable")}
	sink := newKafkaSink(w)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Error(t, sink.Deliver(ctx, testEvent()))
	}
	err := sink.Deliver(ctx, testEvent())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, w.calls)
}

func TestConsumer_StoresNotifications(t *testing.T) {
	store := memstore.NewStore()
	mailbox := NewService(store.Notifications)

	event := testEvent()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	reader := &fakeReader{messages: []kafkaGo.Message{
		{Value: []byte("not json")},
		{Value: []byte(`{"id":"","effect":{}}`)},
		{Value: payload},
		{Value: payload},
	}}
	c := &Consumer{sink: mailbox, reader: reader}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	list, err := mailbox.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, event.ID, list[0].ID)
	assert.Equal(t, "Parcel pickup requested", list[0].Title)
}

func setupKafka(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Kafka container test in short mode")
	}
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaRoundTrip(t *testing.T) {
	broker := setupKafka(t)
	const topic = "order-notifications-test"
	createTopic(t, broker, topic)

	store := memstore.NewStore()
	mailbox := NewService(store.Notifications)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	events := domain.OutboxEventsFor("o1", domain.Notify("u1", "o1", "", "Order completed", "The buyer has confirmed receiving your item."), time.Now())
	require.NoError(t, store.Outbox.Append(ctx, events))

	sink := NewKafkaSink(topic, broker)
	defer sink.Close()
	go NewOutboxPoller(store.Outbox, sink, 100*time.Millisecond).Run(ctx)

	consumer := NewConsumer(mailbox, topic, broker)
	defer consumer.Close()
	go consumer.Run(ctx)

	assert.Eventually(t, func() bool {
		list, err := mailbox.List(ctx, "u1")
		return err == nil && len(list) == 1
	}, 45*time.Second, 200*time.Millisecond)
}
