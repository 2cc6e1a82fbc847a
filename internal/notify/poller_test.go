package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	m         sync.RWMutex
	err       error
	delivered []*domain.OutboxEvent
}

func (s *mockSink) Deliver(_ context.Context, event *domain.OutboxEvent) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, event)
	return nil
}

func (s *mockSink) count() int {
	s.m.RLock()
	defer s.m.RUnlock()
	return len(s.delivered)
}

type mockOutbox struct {
	m         sync.RWMutex
	events    []*domain.OutboxEvent
	fetchErr  error
	processed []string
	failed    []string
}

func (o *mockOutbox) Append(_ context.Context, events []*domain.OutboxEvent) error {
	o.m.Lock()
	defer o.m.Unlock()
	o.events = append(o.events, events...)
	return nil
}

func (o *mockOutbox) GetUnprocessedEvents(context.Context, int) ([]*domain.OutboxEvent, error) {
	o.m.RLock()
	defer o.m.RUnlock()
	return o.events, o.fetchErr
}

func (o *mockOutbox) MarkEventAsProcessed(_ context.Context, id string) error {
	o.m.Lock()
	defer o.m.Unlock()
	o.processed = append(o.processed, id)
	return nil
}

func (o *mockOutbox) MarkEventAsFailed(_ context.Context, id string, _ error) error {
	o.m.Lock()
	defer o.m.Unlock()
	o.failed = append(o.failed, id)
	return nil
}

func TestProcessUnpublishedEvents_Success(t *testing.T) {
	repo := &mockOutbox{events: []*domain.OutboxEvent{{ID: "e1"}, {ID: "e2"}}}
	sink := &mockSink{}
	p := NewOutboxPoller(repo, sink, time.Second)

	p.processUnpublishedEvents(context.Background())

	assert.Equal(t, 2, sink.count())
	assert.Equal(t, []string{"e1", "e2"}, repo.processed)
	assert.Empty(t, repo.failed)
}

func TestProcessUnpublishedEvents_SinkFailureKeepsEventQueued(t *testing.T) {
	repo := &mockOutbox{events: []*domain.OutboxEvent{{ID: "e1"}}}
	sink := &mockSink{err: errors.New("broker down")}
	p := NewOutboxPoller(repo, sink, time.Second)

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.processed)
	assert.Equal(t, []string{"e1"}, repo.failed)
}

func TestProcessUnpublishedEvents_DropsExhaustedEvents(t *testing.T) {
	repo := &mockOutbox{events: []*domain.OutboxEvent{{ID: "e1", Attempts: maxAttempts}}}
	sink := &mockSink{}
	p := NewOutboxPoller(repo, sink, time.Second)

	p.processUnpublishedEvents(context.Background())

	assert.Zero(t, sink.count())
	assert.Equal(t, []string{"e1"}, repo.processed)
}

func TestProcessUnpublishedEvents_FetchError(t *testing.T) {
	repo := &mockOutbox{fetchErr: errors.New("db down")}
	sink := &mockSink{}
	p := NewOutboxPoller(repo, sink, time.Second)

	p.processUnpublishedEvents(context.Background())
	assert.Zero(t, sink.count())
}

func TestOutboxPoller_RunDeliversIntoMailbox(t *testing.T) {
	store := memstore.NewStore()
	mailbox := NewService(store.Notifications)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := domain.OutboxEventsFor("o1", domain.Notify("u1", "o1", "", "Order delivered", "Your order has been delivered."), time.Now())
	require.NoError(t, store.Outbox.Append(ctx, events))

	go NewOutboxPoller(store.Outbox, mailbox, 10*time.Millisecond).Run(ctx)

	assert.Eventually(t, func() bool {
		list, err := mailbox.List(ctx, "u1")
		return err == nil && len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		pending, err := store.Outbox.GetUnprocessedEvents(ctx, 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
