package memstore

import (
	"context"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

type orderRepo struct{ s *MemoryStore }

func (r orderRepo) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.ID == "" {
		order.ID = domain.NewID()
	}
	now := r.s.clock()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	r.s.orders[order.ID] = *order
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r orderRepo) Update(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[order.ID]; !ok {
		return repository.ErrNotFound
	}
	order.UpdatedAt = r.s.clock()
	r.s.orders[order.ID] = *order
	return nil
}

func (r orderRepo) FindActiveByProduct(ctx context.Context, productID string) (*domain.Order, error) {
	active, _ := r.ListActiveByProduct(ctx, productID)
	if len(active) == 0 {
		return nil, repository.ErrNotFound
	}
	return active[0], nil
}

func (r orderRepo) ListActiveByProduct(_ context.Context, productID string) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool {
		return productID != "" && o.ProductID == productID && !o.Status.IsTerminal()
	}), nil
}

func (r orderRepo) ListByBuyer(_ context.Context, buyerID string) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r orderRepo) ListBySeller(_ context.Context, sellerID string) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return sellerID != "" && o.SellerID == sellerID }), nil
}

func (r orderRepo) ListByRunner(_ context.Context, runnerID string) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool { return runnerID != "" && o.RunnerID == runnerID }), nil
}

func (r orderRepo) ListOpenDeliveries(_ context.Context) ([]*domain.Order, error) {
	return r.filter(func(o *domain.Order) bool {
		return o.Status == domain.OrderOpen && o.PickupMode == domain.PickupDelivery
	}), nil
}

func (r orderRepo) filter(match func(*domain.Order) bool) []*domain.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := []*domain.Order{}
	for _, o := range r.s.orders {
		o := o
		if match(&o) {
			result = append(result, &o)
		}
	}
	newestFirst(result,
		func(o *domain.Order) time.Time { return o.CreatedAt },
		func(o *domain.Order) string { return o.ID })
	return result
}
