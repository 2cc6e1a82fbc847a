// Package http exposes the marketplace over JSON and mounts the websocket endpoint.
package http

import (
	"net/http"
	"time"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Tokens        TokenParser
	Products      ProductService
	Orders        OrderService
	Chat          ChatService
	Notifications NotificationService
	// Websocket is mounted at /ws outside the request timeout.
	Websocket      http.Handler
	RequestTimeout time.Duration
}

var orderActions = []domain.Event{
	domain.EventClaim,
	domain.EventUnassign,
	domain.EventRequestPickup,
	domain.EventSellerGiven,
	domain.EventRunnerPickedCustom,
	domain.EventRunnerDelivered,
	domain.EventSellerDelivered,
	domain.EventComplete,
}

func NewRouter(cfg RouterConfig) chi.Router {
	products := NewProductHandler(cfg.Products)
	orderHandler := NewOrderHandler(cfg.Orders)
	chats := NewChatHandler(cfg.Chat)
	notifications := NewNotificationHandler(cfg.Notifications)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(Authenticate(cfg.Tokens))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Websocket != nil {
		r.With(RequireUser).Get("/ws", cfg.Websocket.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(middleware.Compress(5))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.List)
			r.With(RequireUser).Get("/me", products.Mine)
			r.Get("/{id}", products.Get)

			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Post("/", products.Create)
				r.Delete("/{id}/cancel", products.Cancel)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.Create)
				r.Get("/buy", orderHandler.Buying)
				r.Get("/sell", orderHandler.Selling)
				r.Get("/open", orderHandler.OpenDeliveries)
				r.Get("/deliver", orderHandler.Deliveries)
				r.Get("/{id}", orderHandler.Get)
				for _, e := range orderActions {
					r.Post("/{id}/"+string(e), orderHandler.Transition(e))
				}
				r.Delete("/{id}/cancel", orderHandler.Transition(domain.EventCancel))
			})

			r.Route("/chat", func(r chi.Router) {
				r.Post("/conversation", chats.StartConversation)
				r.Get("/conversations", chats.ListConversations)
				r.Post("/message", chats.SendMessage)
				r.Get("/messages/{id}", chats.GetMessages)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notifications.List)
				r.Get("/unread-count", notifications.UnreadCount)
				r.Post("/read-all", notifications.MarkAllRead)
				r.Post("/{id}/read", notifications.MarkRead)
			})
		})
	})

	return r
}
