package memstore

import (
	"context"
	"sort"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

type notificationRepo struct{ s *MemoryStore }

func (r notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == "" {
		n.ID = domain.NewID()
	}
	if _, exists := r.s.notifications[n.ID]; exists {
		return repository.ErrDuplicate
	}
	now := r.s.clock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	r.s.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []*domain.Notification{}
	for _, n := range r.s.notifications {
		n := n
		if n.UserID == userID {
			result = append(result, &n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id, userID string) (*domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	n.IsRead = true
	n.UpdatedAt = r.s.clock()
	r.s.notifications[id] = n
	return &n, nil
}

func (r notificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.UpdatedAt = r.s.clock()
			r.s.notifications[id] = n
		}
	}
	return nil
}

func (r notificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type outboxRepo struct{ s *MemoryStore }

func (r outboxRepo) Append(_ context.Context, events []*domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range events {
		if e.ID == "" {
			e.ID = domain.NewID()
		}
		e.CreatedAt = r.s.clock()
		r.s.outbox[e.ID] = *e
	}
	return nil
}

func (r outboxRepo) GetUnprocessedEvents(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []*domain.OutboxEvent{}
	for _, e := range r.s.outbox {
		e := e
		if e.ProcessedAt == nil {
			result = append(result, &e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r outboxRepo) MarkEventAsProcessed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := r.s.clock()
	e.ProcessedAt = &now
	r.s.outbox[id] = e
	return nil
}

func (r outboxRepo) MarkEventAsFailed(_ context.Context, id string, cause error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Attempts++
	if cause != nil {
		e.LastError = cause.Error()
	}
	r.s.outbox[id] = e
	return nil
}
