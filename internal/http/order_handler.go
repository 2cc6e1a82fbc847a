package http

import (
	"context"
	"net/http"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/orders"
	"github.com/go-chi/chi/v5"
)

type OrderService interface {
	Create(ctx context.Context, buyerID string, in domain.NewOrderInput) (*orders.OrderView, error)
	Transition(ctx context.Context, orderID, actorID string, e domain.Event) (*orders.OrderView, error)
	Get(ctx context.Context, orderID, viewerID string) (*orders.OrderView, error)
	Buying(ctx context.Context, userID string) ([]*orders.OrderView, error)
	Selling(ctx context.Context, userID string) ([]*orders.OrderView, error)
	OpenDeliveries(ctx context.Context) ([]*orders.OrderView, error)
	Deliveries(ctx context.Context, userID string) ([]*orders.OrderView, error)
}

type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.NewOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orders.Create(r.Context(), auth.UserFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"), auth.UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// Transition serves every order action route; e names the action.
func (h *OrderHandler) Transition(e domain.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := h.orders.Transition(r.Context(), chi.URLParam(r, "id"), auth.UserFrom(r.Context()), e)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, order)
	}
}

// GET /api/orders/buy
func (h *OrderHandler) Buying(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context) ([]*orders.OrderView, error) {
		return h.orders.Buying(ctx, auth.UserFrom(ctx))
	})
}

// GET /api/orders/sell
func (h *OrderHandler) Selling(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context) ([]*orders.OrderView, error) {
		return h.orders.Selling(ctx, auth.UserFrom(ctx))
	})
}

// GET /api/orders/open
func (h *OrderHandler) OpenDeliveries(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.orders.OpenDeliveries)
}

// GET /api/orders/deliver
func (h *OrderHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context) ([]*orders.OrderView, error) {
		return h.orders.Deliveries(ctx, auth.UserFrom(ctx))
	})
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context) ([]*orders.OrderView, error)) {
	list, err := fetch(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
