package ws

import (
	"log"
	"net/http"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/gorilla/websocket"
)

// Handler upgrades authenticated requests to websocket clients of the hub.
type Handler struct {
	hub      *Hub
	svc      MessageService
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, svc MessageService, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFrom(r.Context())
	if userID == "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Not authorized"}`))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for user %v: %v", userID, err)
		return
	}

	c := newClient(h.hub, conn, userID)
	h.hub.Register(c)
	log.Printf("user %v connected", userID)

	go c.writePump()
	go c.readPump(h.svc)
}
