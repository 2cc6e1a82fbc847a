// Package memstore keeps every repository in process memory. It backs STORE=memory and the
// service-level tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

// MemoryStore implements every repository interface with maps guarded by one lock.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	products      map[string]domain.Product
	orders        map[string]domain.Order
	conversations map[string]domain.Conversation
	messages      map[string]domain.Message
	notifications map[string]domain.Notification
	outbox        map[string]domain.OutboxEvent

	now  func() time.Time
	last time.Time
}

func New() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		products:      make(map[string]domain.Product),
		orders:        make(map[string]domain.Order),
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string]domain.Message),
		notifications: make(map[string]domain.Notification),
		outbox:        make(map[string]domain.OutboxEvent),
		now:           time.Now,
	}
}

// Store exposes the memory store through the repository bundle.
func (s *MemoryStore) Store() *repository.Store {
	return &repository.Store{
		Users:         userRepo{s},
		Products:      productRepo{s},
		Orders:        orderRepo{s},
		Conversations: conversationRepo{s},
		Messages:      messageRepo{s},
		Notifications: notificationRepo{s},
		Outbox:        outboxRepo{s},
	}
}

// NewStore is shorthand for New().Store().
func NewStore() *repository.Store {
	return New().Store()
}

// clock returns a strictly increasing timestamp so creation order survives sorting.
// Callers hold mu.
func (s *MemoryStore) clock() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newestFirst[T any](items []*T, created func(*T) time.Time, id func(*T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

type userRepo struct{ s *MemoryStore }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = domain.NewID()
	}
	now := r.s.clock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) GetByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			result[id] = &u
		}
	}
	return result, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type productRepo struct{ s *MemoryStore }

func (r productRepo) Create(_ context.Context, product *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if product.ID == "" {
		product.ID = domain.NewID()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	now := r.s.clock()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.s.products[product.ID] = *product
	return nil
}

func (r productRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r productRepo) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make(map[string]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			result[id] = &p
		}
	}
	return result, nil
}

func (r productRepo) List(_ context.Context, f repository.ProductFilter) ([]*domain.Product, error) {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	return r.filter(func(p *domain.Product) bool {
		switch {
		case p.IsSold || p.Status != domain.ProductOpen:
			return false
		case q != "" && !strings.Contains(strings.ToLower(p.Title), q):
			return false
		case f.Category != "" && p.Category != f.Category:
			return false
		case f.MinPrice != nil && p.Price < *f.MinPrice:
			return false
		case f.MaxPrice != nil && p.Price > *f.MaxPrice:
			return false
		}
		return true
	}), nil
}

func (r productRepo) ListBySeller(_ context.Context, sellerID string) ([]*domain.Product, error) {
	return r.filter(func(p *domain.Product) bool { return p.SellerID == sellerID }), nil
}

func (r productRepo) UpdateStatus(_ context.Context, id string, status domain.ProductStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.SetStatus(status)
	p.UpdatedAt = r.s.clock()
	r.s.products[id] = p
	return nil
}

func (r productRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r productRepo) filter(match func(*domain.Product) bool) []*domain.Product {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []*domain.Product{}
	for _, p := range r.s.products {
		p := p
		if match(&p) {
			result = append(result, &p)
		}
	}
	newestFirst(result,
		func(p *domain.Product) time.Time { return p.CreatedAt },
		func(p *domain.Product) string { return p.ID })
	return result
}
