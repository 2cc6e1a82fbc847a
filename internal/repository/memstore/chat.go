package memstore

import (
	"context"
	"sort"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

type conversationRepo struct{ s *MemoryStore }

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func (r conversationRepo) FindByKey(_ context.Context, members []string, productID, orderID string) (*domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.conversations {
		if c.ProductID == productID && c.OrderID == orderID && sameMembers(c.Members, members) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r conversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if conv.ID == "" {
		conv.ID = domain.NewID()
	}
	conv.Members = append([]string(nil), conv.Members...)
	sort.Strings(conv.Members)
	now := r.s.clock()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	r.s.conversations[conv.ID] = *conv
	return nil
}

func (r conversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r conversationRepo) ListByMember(_ context.Context, userID string) ([]*domain.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []*domain.Conversation{}
	for _, c := range r.s.conversations {
		c := c
		if c.HasMember(userID) {
			result = append(result, &c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (r conversationRepo) Touch(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = r.s.clock()
	r.s.conversations[id] = c
	return nil
}

type messageRepo struct{ s *MemoryStore }

func (r messageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = domain.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.s.clock()
	}
	r.s.messages[msg.ID] = *msg
	return nil
}

func (r messageRepo) ListByConversation(_ context.Context, conversationID string) ([]*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []*domain.Message{}
	for _, m := range r.s.messages {
		m := m
		if m.ConversationID == conversationID {
			result = append(result, &m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
