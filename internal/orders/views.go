package orders

import (
	"context"
	"fmt"

	"github.com/campuskart/campuskart/internal/domain"
)

// OrderView is an order with its product and participants resolved.
type OrderView struct {
	*domain.Order
	Product *domain.ProductSummary `json:"product,omitempty"`
	Buyer   *domain.UserRef        `json:"buyer,omitempty"`
	Seller  *domain.UserRef        `json:"seller,omitempty"`
	Runner  *domain.UserRef        `json:"runner,omitempty"`
}

// Get returns one order, populated. Only its parties may read it, except an open delivery order,
// which every runner can inspect before claiming.
func (s *Service) Get(ctx context.Context, orderID, viewerID string) (*OrderView, error) {
	if viewerID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !visibleTo(order, viewerID) {
		return nil, domain.Forbidden("Not allowed")
	}
	return s.view(ctx, order)
}

func visibleTo(o *domain.Order, userID string) bool {
	switch userID {
	case o.BuyerID, o.SellerID, o.RunnerID:
		return true
	}
	return o.Status == domain.OrderOpen && o.PickupMode == domain.PickupDelivery
}

// Buying lists the orders userID placed, newest first.
func (s *Service) Buying(ctx context.Context, userID string) ([]*OrderView, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	list, err := s.orders.ListByBuyer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buy orders: %w", err)
	}
	return s.views(ctx, list)
}

// Selling lists the orders placed on userID's listings, newest first.
func (s *Service) Selling(ctx context.Context, userID string) ([]*OrderView, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	list, err := s.orders.ListBySeller(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sell orders: %w", err)
	}
	return s.views(ctx, list)
}

// OpenDeliveries lists delivery orders still waiting for a runner.
func (s *Service) OpenDeliveries(ctx context.Context) ([]*OrderView, error) {
	list, err := s.orders.ListOpenDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	return s.views(ctx, list)
}

// Deliveries lists the orders userID is running.
func (s *Service) Deliveries(ctx context.Context, userID string) ([]*OrderView, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	list, err := s.orders.ListByRunner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return s.views(ctx, list)
}

func (s *Service) view(ctx context.Context, order *domain.Order) (*OrderView, error) {
	views, err := s.views(ctx, []*domain.Order{order})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// views resolves products and users for a batch with one lookup per collection.
func (s *Service) views(ctx context.Context, list []*domain.Order) ([]*OrderView, error) {
	userIDs := make([]string, 0, len(list)*3)
	productIDs := make([]string, 0, len(list))
	for _, o := range list {
		userIDs = appendNonEmpty(userIDs, o.BuyerID, o.SellerID, o.RunnerID)
		productIDs = appendNonEmpty(productIDs, o.ProductID)
	}

	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}

	views := make([]*OrderView, 0, len(list))
	for _, o := range list {
		views = append(views, &OrderView{
			Order:   o,
			Product: products[o.ProductID].Summary(),
			Buyer:   users[o.BuyerID].Ref(),
			Seller:  users[o.SellerID].Ref(),
			Runner:  users[o.RunnerID].Ref(),
		})
	}
	return views, nil
}

func appendNonEmpty(dst []string, ids ...string) []string {
	for _, id := range ids {
		if id != "" {
			dst = append(dst, id)
		}
	}
	return dst
}
