package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
	"github.com/campuskart/campuskart/internal/repository/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyCache struct {
	m       sync.RWMutex
	deleted []string
}

func (c *spyCache) Get(context.Context, string) (*domain.Product, error) {
	return nil, errors.New("unused")
}

func (c *spyCache) Set(context.Context, *domain.Product) error { return nil }

func (c *spyCache) Delete(_ context.Context, id string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.deleted = append(c.deleted, id)
	return nil
}

type statusRecorder struct {
	m       sync.RWMutex
	changes []domain.OrderStatus
}

func (r *statusRecorder) OrderStatusChanged(_ context.Context, _ string, status domain.OrderStatus) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.changes = append(r.changes, status)
	return nil
}

func (r *statusRecorder) seen() []domain.OrderStatus {
	r.m.RLock()
	defer r.m.RUnlock()
	return append([]domain.OrderStatus(nil), r.changes...)
}

type failingOutbox struct {
	repository.OutboxRepository
}

func (failingOutbox) Append(context.Context, []*domain.OutboxEvent) error {
	return errors.New("outbox down")
}

type fixture struct {
	svc   *Service
	store *repository.Store
	cache *spyCache
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.NewStore()
	ctx := context.Background()
	for _, u := range []*domain.User{
		{ID: "S", Name: "Seller", Email: "s@campus.edu", Hostel: "H1"},
		{ID: "Bu", Name: "Buyer", Email: "b@campus.edu", Hostel: "H2"},
		{ID: "R", Name: "Runner", Email: "r@campus.edu", Hostel: "H3"},
		{ID: "R2", Name: "Runner Two", Email: "r2@campus.edu"},
	} {
		require.NoError(t, store.Users.Create(ctx, u))
	}
	c := &spyCache{}
	return &fixture{svc: NewService(store, c), store: store, cache: c, ctx: ctx}
}

func (f *fixture) listProduct(t *testing.T) *domain.Product {
	t.Helper()
	p := &domain.Product{Title: "Lab coat", Description: "Size M", Price: 250, Category: domain.CategoryOthers, SellerID: "S", Status: domain.ProductOpen}
	require.NoError(t, f.store.Products.Create(f.ctx, p))
	return p
}

func (f *fixture) product(t *testing.T, id string) *domain.Product {
	t.Helper()
	p, err := f.store.Products.GetByID(f.ctx, id)
	require.NoError(t, err)
	return p
}

func (f *fixture) queued(t *testing.T) []domain.Effect {
	t.Helper()
	events, err := f.store.Outbox.GetUnprocessedEvents(f.ctx, 0)
	require.NoError(t, err)
	effects := make([]domain.Effect, 0, len(events))
	for _, e := range events {
		effects = append(effects, e.Effect)
	}
	return effects
}

func TestScenario_CustomRequestDelivery(t *testing.T) {
	f := newFixture(t)

	order, err := f.svc.Create(f.ctx, "B", domain.NewOrderInput{CustomItem: "Pen", PickupMode: domain.PickupDelivery, DeliveryFee: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderOpen, order.Status)
	assert.Nil(t, order.Product)
	assert.Empty(t, order.ProductID)
	assert.Equal(t, 10.0, order.DeliveryFee)

	order, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRunnerGoing, order.Status)
	assert.Equal(t, "R", order.RunnerID)
	require.NotNil(t, order.Runner)
	assert.Equal(t, "Runner", order.Runner.Name)

	order, err = f.svc.RunnerPickedCustom(f.ctx, order.ID, "R")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRunnerTaken, order.Status)

	order, err = f.svc.RunnerDelivered(f.ctx, order.ID, "R")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderDeliveredToBuyer, order.Status)

	order, err = f.svc.Complete(f.ctx, order.ID, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, order.Status)
}

func TestScenario_SelfPickup(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupSelf})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderOpen, order.Status)
	assert.Equal(t, domain.FlowSelfPickup, order.Flow)
	assert.Equal(t, domain.ProductAssigned, f.product(t, p.ID).Status)
	require.NotNil(t, order.Product)
	assert.Equal(t, "Lab coat", order.Product.Title)
	require.NotNil(t, order.Seller)
	assert.Equal(t, "H1", order.Seller.Hostel)

	order, err = f.svc.SellerDelivered(f.ctx, order.ID, "S")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderSellerDelivered, order.Status)

	order, err = f.svc.Complete(f.ctx, order.ID, "Bu")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, order.Status)

	stored := f.product(t, p.ID)
	assert.Equal(t, domain.ProductDelivered, stored.Status)
	assert.True(t, stored.IsSold)
	assert.Contains(t, f.cache.deleted, p.ID)
}

func TestScenario_OwnListingRejected(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	_, err := f.svc.Create(f.ctx, "S", domain.NewOrderInput{ProductID: p.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "You cannot place an order on your own listing.", domain.Reason(err))

	orders, err := f.store.Orders.ListBySeller(f.ctx, "S")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, domain.ProductOpen, f.product(t, p.ID).Status)
}

func TestScenario_ProductDeliveryFullFlow(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery, DeliveryFee: 20})
	require.NoError(t, err)

	steps := []struct {
		call func(context.Context, string, string) (*OrderView, error)
		who  string
		want domain.OrderStatus
	}{
		{f.svc.Claim, "R", domain.OrderAssigned},
		{f.svc.RequestPickup, "R", domain.OrderPickupRequested},
		{f.svc.SellerGiven, "S", domain.OrderPickedFromSeller},
		{f.svc.RunnerDelivered, "R", domain.OrderDeliveredToBuyer},
		{f.svc.Complete, "Bu", domain.OrderCompleted},
	}
	for _, step := range steps {
		order, err = step.call(f.ctx, order.ID, step.who)
		require.NoError(t, err, step.want)
		assert.Equal(t, step.want, order.Status)
	}
	assert.True(t, f.product(t, p.ID).IsSold)
}

func TestCreate_SecondOrderOnHeldProductIsConflict(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	first, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery})
	require.NoError(t, err)

	_, err = f.svc.Create(f.ctx, "R2", domain.NewOrderInput{ProductID: p.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "This item already has an active order", domain.Reason(err))

	// still held once the first order moves past ASSIGNED
	_, err = f.svc.Claim(f.ctx, first.ID, "R")
	require.NoError(t, err)
	_, err = f.svc.RequestPickup(f.ctx, first.ID, "R")
	require.NoError(t, err)
	_, err = f.svc.Create(f.ctx, "R2", domain.NewOrderInput{ProductID: p.ID})
	assert.ErrorIs(t, err, domain.ErrConflict)

	active, err := f.store.Orders.ListActiveByProduct(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCreate_ValidationAndNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Either productId or customItem is required", domain.Reason(err))

	_, err = f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{CustomItem: "Pen", DeliveryFee: -5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Create(f.ctx, "", domain.NewOrderInput{CustomItem: "Pen"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestCreate_NotifiesSellerOfNewRequest(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	_, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID})
	require.NoError(t, err)

	effects := f.queued(t)
	require.Len(t, effects, 1)
	assert.Equal(t, "S", effects[0].Recipient)
	assert.Equal(t, domain.NotificationNewRequest, effects[0].Type)
}

func TestCancel_RestoresProductAndKeepsOrder(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery})
	require.NoError(t, err)
	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, order.ID, "R")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := f.svc.Cancel(f.ctx, order.ID, "Bu")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, cancelled.Status)

	stored := f.product(t, p.ID)
	assert.Equal(t, domain.ProductOpen, stored.Status)
	assert.False(t, stored.IsSold)

	kept, err := f.svc.Get(f.ctx, order.ID, "Bu")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, kept.Status)

	// the product can be ordered again
	_, err = f.svc.Create(f.ctx, "R2", domain.NewOrderInput{ProductID: p.ID})
	require.NoError(t, err)
}

func TestTransition_RepeatedCallFails(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{CustomItem: "Chai"})
	require.NoError(t, err)

	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)
	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "Order not available", domain.Reason(err))
}

func TestTransition_UnknownOrderAndEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Claim(f.ctx, "missing", "R")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Transition(f.ctx, "missing", "R", domain.Event("teleport"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUnassign_ReopensForOtherRunners(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{CustomItem: "Notebook"})
	require.NoError(t, err)
	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)

	_, err = f.svc.Unassign(f.ctx, order.ID, "R2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	reopened, err := f.svc.Unassign(f.ctx, order.ID, "R")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderOpen, reopened.Status)
	assert.Empty(t, reopened.RunnerID)
	assert.Nil(t, reopened.Runner)

	open, err := f.svc.OpenDeliveries(f.ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, order.ID, open[0].ID)

	_, err = f.svc.Claim(f.ctx, order.ID, "R2")
	require.NoError(t, err)
}

func TestTransition_OutboxFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{CustomItem: "Pen"})
	require.NoError(t, err)

	f.svc.outbox = failingOutbox{}
	claimed, err := f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRunnerGoing, claimed.Status)

	stored, err := f.store.Orders.GetByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "R", stored.RunnerID)
}

func TestRunnerInvariantHoldsAcrossTransitions(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)
	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery})
	require.NoError(t, err)

	check := func() {
		stored, err := f.store.Orders.GetByID(f.ctx, order.ID)
		require.NoError(t, err)
		if stored.Status == domain.OrderAssigned {
			assert.NotEmpty(t, stored.RunnerID)
		}
		if stored.Status == domain.OrderOpen {
			assert.Empty(t, stored.RunnerID)
		}
	}

	check()
	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)
	check()
	_, err = f.svc.Unassign(f.ctx, order.ID, "R")
	require.NoError(t, err)
	check()
	_, err = f.svc.Claim(f.ctx, order.ID, "R2")
	require.NoError(t, err)
	check()
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	bought, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery})
	require.NoError(t, err)
	custom, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{CustomItem: "Pen"})
	require.NoError(t, err)
	_, err = f.svc.Claim(f.ctx, bought.ID, "R")
	require.NoError(t, err)

	buying, err := f.svc.Buying(f.ctx, "Bu")
	require.NoError(t, err)
	require.Len(t, buying, 2)
	assert.Equal(t, custom.ID, buying[0].ID)

	selling, err := f.svc.Selling(f.ctx, "S")
	require.NoError(t, err)
	require.Len(t, selling, 1)
	assert.Equal(t, "Buyer", selling[0].Buyer.Name)

	deliveries, err := f.svc.Deliveries(f.ctx, "R")
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, bought.ID, deliveries[0].ID)

	open, err := f.svc.OpenDeliveries(f.ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, custom.ID, open[0].ID)
}

func TestCancelByListing(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)
	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery})
	require.NoError(t, err)
	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)

	cancelled, err := f.svc.CancelByListing(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)

	stored, err := f.store.Orders.GetByID(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, stored.Status)

	var toBuyer, toRunner bool
	for _, e := range f.queued(t) {
		if e.Title != "Order cancelled" {
			continue
		}
		toBuyer = toBuyer || e.Recipient == "Bu"
		toRunner = toRunner || e.Recipient == "R"
	}
	assert.True(t, toBuyer)
	assert.True(t, toRunner)
}

func TestTransitions_AnnounceCommittedStatus(t *testing.T) {
	f := newFixture(t)
	rec := &statusRecorder{}
	f.svc.NotifyStatus(rec)
	p := f.listProduct(t)

	order, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID, PickupMode: domain.PickupDelivery})
	require.NoError(t, err)
	_, err = f.svc.Claim(f.ctx, order.ID, "R")
	require.NoError(t, err)

	// rejected transitions are not announced
	_, err = f.svc.Complete(f.ctx, order.ID, "Bu")
	require.Error(t, err)

	_, err = f.svc.CancelByListing(f.ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, []domain.OrderStatus{domain.OrderAssigned, domain.OrderCancelled}, rec.seen())
}

func TestGet_VisibleToPartiesAndRunnerCandidates(t *testing.T) {
	f := newFixture(t)
	p := f.listProduct(t)

	self, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{ProductID: p.ID})
	require.NoError(t, err)
	custom, err := f.svc.Create(f.ctx, "Bu", domain.NewOrderInput{CustomItem: "Maggi"})
	require.NoError(t, err)

	for _, viewer := range []string{"Bu", "S"} {
		_, err := f.svc.Get(f.ctx, self.ID, viewer)
		assert.NoError(t, err, viewer)
	}
	_, err = f.svc.Get(f.ctx, self.ID, "R")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(f.ctx, custom.ID, "R2")
	require.NoError(t, err)

	_, err = f.svc.Claim(f.ctx, custom.ID, "R")
	require.NoError(t, err)
	_, err = f.svc.Get(f.ctx, custom.ID, "R")
	assert.NoError(t, err)
	_, err = f.svc.Get(f.ctx, custom.ID, "R2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(f.ctx, custom.ID, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
