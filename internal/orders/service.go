package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/campuskart/campuskart/internal/cache"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

// StatusNotifier hears about every committed status change.
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error
}

// Service is the order lifecycle engine. Every transition is read-modify-write without locking:
// two concurrent transitions on one order race and the last write wins.
type Service struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	outbox   repository.OutboxRepository
	cache    cache.ProductCache
	status   StatusNotifier
	now      func() time.Time
}

func NewService(store *repository.Store, productCache cache.ProductCache) *Service {
	if productCache == nil {
		productCache = cache.NoopCache{}
	}
	return &Service{
		orders:   store.Orders,
		products: store.Products,
		users:    store.Users,
		outbox:   store.Outbox,
		cache:    productCache,
		now:      time.Now,
	}
}

// NotifyStatus routes committed status changes to n.
func (s *Service) NotifyStatus(n StatusNotifier) {
	s.status = n
}

// Create places a product order or a custom request for buyerID.
func (s *Service) Create(ctx context.Context, buyerID string, in domain.NewOrderInput) (*OrderView, error) {
	if buyerID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:             domain.NewID(),
		CustomItem:     in.CustomItem,
		Image:          in.Image,
		BuyerID:        buyerID,
		PickupMode:     in.PickupMode,
		PickupLocation: in.PickupLocation,
		DropLocation:   in.DropLocation,
		DeliveryFee:    in.DeliveryFee,
		Status:         domain.OrderOpen,
	}

	var product *domain.Product
	if in.ProductID != "" {
		p, err := s.reserveCheck(ctx, in.ProductID, buyerID)
		if err != nil {
			return nil, err
		}
		product = p
		order.ProductID = p.ID
		order.SellerID = p.SellerID
	}
	order.Flow = domain.FlowFor(order.HasProduct(), order.PickupMode)
	if err := order.Validate(); err != nil {
		return nil, err
	}

	if product != nil {
		if err := s.setProductStatus(ctx, product.ID, domain.ProductAssigned); err != nil {
			return nil, err
		}
	}
	if err := s.orders.Create(ctx, order); err != nil {
		log.Printf("failed to create order for buyer %v: %v", buyerID, err)
		if product != nil {
			if errRestore := s.setProductStatus(ctx, product.ID, domain.ProductOpen); errRestore != nil {
				log.Printf("failed to release product id = %v: %v", product.ID, errRestore)
			}
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.emit(ctx, order.ID, domain.Notify(order.SellerID, order.ID, domain.NotificationNewRequest,
		"New order request", "Someone placed an order for your listing."))

	return s.view(ctx, order)
}

// reserveCheck runs the guards for ordering productID: it exists, it is not the buyer's own
// listing and nothing else holds it.
func (s *Service) reserveCheck(ctx context.Context, productID, buyerID string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound("Product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.SellerID == buyerID {
		return nil, domain.Validation("You cannot place an order on your own listing.")
	}
	if !product.Available() {
		return nil, domain.Conflict("This item already has an active order")
	}

	_, err = s.orders.FindActiveByProduct(ctx, productID)
	switch {
	case err == nil:
		return nil, domain.Conflict("This item already has an active order")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check active orders: %w", err)
	}
	return product, nil
}

func (s *Service) Claim(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventClaim)
}

func (s *Service) Cancel(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventCancel)
}

func (s *Service) Unassign(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventUnassign)
}

func (s *Service) RequestPickup(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventRequestPickup)
}

func (s *Service) SellerGiven(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventSellerGiven)
}

func (s *Service) RunnerPickedCustom(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventRunnerPickedCustom)
}

func (s *Service) RunnerDelivered(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventRunnerDelivered)
}

func (s *Service) SellerDelivered(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventSellerDelivered)
}

func (s *Service) Complete(ctx context.Context, orderID, actorID string) (*OrderView, error) {
	return s.transition(ctx, orderID, actorID, domain.EventComplete)
}

// Transition dispatches an event by name. Unknown events are a validation error.
func (s *Service) Transition(ctx context.Context, orderID, actorID string, e domain.Event) (*OrderView, error) {
	if !knownEvent(e) {
		return nil, domain.Validation(fmt.Sprintf("unknown order action %q", e))
	}
	return s.transition(ctx, orderID, actorID, e)
}

func knownEvent(e domain.Event) bool {
	switch e {
	case domain.EventClaim, domain.EventCancel, domain.EventUnassign, domain.EventRequestPickup,
		domain.EventSellerGiven, domain.EventRunnerPickedCustom, domain.EventRunnerDelivered,
		domain.EventSellerDelivered, domain.EventComplete:
		return true
	}
	return false
}

func (s *Service) transition(ctx context.Context, orderID, actorID string, e domain.Event) (*OrderView, error) {
	if actorID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	out, err := Apply(order, e, actorID)
	if err != nil {
		return nil, err
	}
	if err := order.Validate(); err != nil {
		return nil, fmt.Errorf("order %s after %s: %w", order.ID, e, err)
	}

	if err := s.orders.Update(ctx, order); err != nil {
		log.Printf("failed to update order id = %v on %v: %v", order.ID, e, err)
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	log.Printf("order %v: %v -> %v by %v", order.ID, from, order.Status, actorID)

	if out.ProductStatus != "" && order.HasProduct() {
		if err := s.setProductStatus(ctx, order.ProductID, out.ProductStatus); err != nil {
			return nil, err
		}
	}
	s.emit(ctx, order.ID, out.Effects)
	s.announce(ctx, order)

	return s.view(ctx, order)
}

func (s *Service) load(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound("Order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// CancelByListing moves every active order on productID to CANCELLED. It runs when the seller
// removes the listing, so no role or flow guard applies.
func (s *Service) CancelByListing(ctx context.Context, productID string) ([]*domain.Order, error) {
	active, err := s.orders.ListActiveByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active orders: %w", err)
	}
	for _, order := range active {
		effects := cancelForListing(order)
		if err := s.orders.Update(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to cancel order %s: %w", order.ID, err)
		}
		s.emit(ctx, order.ID, effects)
		s.announce(ctx, order)
	}
	return active, nil
}

func (s *Service) setProductStatus(ctx context.Context, productID string, status domain.ProductStatus) error {
	err := s.products.UpdateStatus(ctx, productID, status)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("failed to set product id = %v to %v: %v", productID, status, err)
		return fmt.Errorf("failed to update product status: %w", err)
	}
	s.invalidateCache(productID)
	return nil
}

func (s *Service) invalidateCache(productID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, productID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}

// emit queues effects for the delivery worker. The transition has already been written, so a
// failure here is only logged.
func (s *Service) emit(ctx context.Context, orderID string, effects []domain.Effect) {
	if len(effects) == 0 {
		return
	}
	events := domain.OutboxEventsFor(orderID, effects, s.now())
	if err := s.outbox.Append(ctx, events); err != nil {
		log.Printf("failed to queue %d notifications for order %v: %v", len(events), orderID, err)
	}
}

func (s *Service) announce(ctx context.Context, order *domain.Order) {
	if s.status == nil {
		return
	}
	if err := s.status.OrderStatusChanged(ctx, order.ID, order.Status); err != nil {
		log.Printf("failed to announce order %v as %v: %v", order.ID, order.Status, err)
	}
}
