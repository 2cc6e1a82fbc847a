package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockIsStrictlyIncreasing(t *testing.T) {
	s := New()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.mu.Lock()
	a, b := s.clock(), s.clock()
	s.mu.Unlock()
	assert.True(t, b.After(a))
}

func TestOrders_NewestFirstAndActiveLookup(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := &domain.Order{ProductID: "p1", SellerID: "s", BuyerID: "b", Status: domain.OrderCancelled}
	second := &domain.Order{ProductID: "p1", SellerID: "s", BuyerID: "b", Status: domain.OrderOpen}
	require.NoError(t, store.Orders.Create(ctx, first))
	require.NoError(t, store.Orders.Create(ctx, second))

	list, err := store.Orders.ListByBuyer(ctx, "b")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	active, err := store.Orders.FindActiveByProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	_, err = store.Orders.FindActiveByProduct(ctx, "p2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOrders_ReturnedValuesAreCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	o := &domain.Order{CustomItem: "Pen", BuyerID: "b", Status: domain.OrderOpen}
	require.NoError(t, store.Orders.Create(ctx, o))

	got, err := store.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	got.Status = domain.OrderCompleted

	again, err := store.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderOpen, again.Status)
}

func TestProducts_ListFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	book := &domain.Product{Title: "Physics book", Price: 200, Category: domain.CategoryBooks, Status: domain.ProductOpen}
	chair := &domain.Product{Title: "Chair", Price: 900, Category: domain.CategoryFurniture, Status: domain.ProductOpen}
	held := &domain.Product{Title: "Physics notes", Price: 20, Category: domain.CategoryBooks, Status: domain.ProductAssigned}
	for _, p := range []*domain.Product{book, chair, held} {
		require.NoError(t, store.Products.Create(ctx, p))
	}

	got, err := store.Products.List(ctx, repository.ProductFilter{Query: "physics"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, book.ID, got[0].ID)

	maxPrice := 500.0
	got, err = store.Products.List(ctx, repository.ProductFilter{MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, book.ID, got[0].ID)
}

func TestNotifications_LimitAndOwnership(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var last *domain.Notification
	for i := 0; i < 55; i++ {
		last = &domain.Notification{UserID: "u1", Title: "t"}
		require.NoError(t, store.Notifications.Create(ctx, last))
	}

	list, err := store.Notifications.ListByUser(ctx, "u1", 50)
	require.NoError(t, err)
	assert.Len(t, list, 50)
	assert.Equal(t, last.ID, list[0].ID)

	_, err = store.Notifications.MarkRead(ctx, last.ID, "u2")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Notifications.MarkAllRead(ctx, "u1"))
	count, err := store.Notifications.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestConversations_FindByKeyIgnoresMemberOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	conv := &domain.Conversation{Members: []string{"b", "a"}, OrderID: "o1"}
	require.NoError(t, store.Conversations.Create(ctx, conv))

	found, err := store.Conversations.FindByKey(ctx, []string{"a", "b"}, "", "o1")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)

	_, err = store.Conversations.FindByKey(ctx, []string{"a", "b"}, "p1", "")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
