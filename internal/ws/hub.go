// Package ws is the realtime side of chat: a registry of live websocket clients grouped by
// conversation, and the broadcasters that push stored messages into those groups.
package ws

import (
	"log"
	"sync"
)

// Hub maintains the set of active clients and the conversation groups they joined.
// Membership lives in this process only.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	groups  map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		groups:  make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Unregister drops the client from every group it joined and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for id, members := range h.groups {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, id)
		}
	}
	h.mu.Unlock()

	c.close()
	log.Printf("user %v disconnected", c.userID)
}

// Join adds the client to a conversation group. It reports false when the client was
// already a member.
func (h *Hub) Join(conversationID string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[conversationID]
	if !ok {
		members = make(map[*Client]struct{})
		h.groups[conversationID] = members
	}
	if _, joined := members[c]; joined {
		return false
	}
	members[c] = struct{}{}
	return true
}

// Deliver queues payload on every client of the conversation group and returns how many
// clients accepted it.
func (h *Hub) Deliver(conversationID string, payload []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.groups[conversationID]))
	for c := range h.groups[conversationID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return h.send(targets, payload)
}

// BroadcastAll queues payload on every connected client.
func (h *Hub) BroadcastAll(payload []byte) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	return h.send(targets, payload)
}

func (h *Hub) send(targets []*Client, payload []byte) int {
	delivered := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			delivered++
			continue
		}
		log.Printf("dropping slow client of user %v", c.userID)
		h.Unregister(c)
	}
	return delivered
}

// GroupSize returns the number of clients currently in a conversation group.
func (h *Hub) GroupSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[conversationID])
}
