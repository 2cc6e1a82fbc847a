package notify

import (
	"context"
	"log"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

const (
	batchSize   = 100
	maxAttempts = 5
)

// Sink is where the poller hands queued effects.
type Sink interface {
	Deliver(ctx context.Context, event *domain.OutboxEvent) error
}

// OutboxPoller drains the outbox into a Sink. A failed event stays queued and is retried on
// the next tick until it runs out of attempts.
type OutboxPoller struct {
	repo      repository.OutboxRepository
	sink      Sink
	eventTick time.Duration
}

func NewOutboxPoller(repo repository.OutboxRepository, sink Sink, interval time.Duration) *OutboxPoller {
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxPoller{repo: repo, sink: sink, eventTick: interval}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.eventTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		log.Printf("failed to fetch events %v", err)
		return
	}

	for _, event := range events {
		if event.Attempts >= maxAttempts {
			log.Printf("dropping event id = %v after %d attempts, last error %v", event.ID, event.Attempts, event.LastError)
			if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
				log.Printf("failed to mark event as processed id = %v with error %v", event.ID, err)
			}
			continue
		}

		if errDeliver := p.sink.Deliver(ctx, event); errDeliver != nil {
			log.Printf("failed to deliver event id = %v with error %v", event.ID, errDeliver)
			if err := p.repo.MarkEventAsFailed(ctx, event.ID, errDeliver); err != nil {
				log.Printf("failed to record failure for event id = %v with error %v", event.ID, err)
			}
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
		}
	}
}
