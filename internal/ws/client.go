package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/campuskart/campuskart/internal/chat"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBuffer = 64

	eventTimeout = 10 * time.Second
)

// MessageService is the chat surface a connection needs.
type MessageService interface {
	Authorize(ctx context.Context, conversationID, userID string) (*domain.Conversation, error)
	SendMessage(ctx context.Context, in chat.SendInput) (*domain.MessageView, error)
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{hub: hub, conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}
}

// enqueue never blocks. It reports false when the client is gone or its queue is full.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump reads events from the connection until it fails, then unregisters the client.
func (c *Client) readPump(svc MessageService) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error for user %v: %v", c.userID, err)
			}
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		c.handle(ctx, message, svc)
		cancel()
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(ctx context.Context, message []byte, svc MessageService) {
	var in inbound
	if err := json.Unmarshal(message, &in); err != nil {
		c.reply(errorFrame("Malformed event"))
		return
	}

	switch in.Event {
	case EventJoin:
		if in.ConversationID == "" {
			c.reply(errorFrame("conversationId is required"))
			return
		}
		if _, err := svc.Authorize(ctx, in.ConversationID, c.userID); err != nil {
			c.reply(errorFrame(reason(err)))
			return
		}
		c.hub.Join(in.ConversationID, c)
		c.reply(outbound{Event: EventJoined, ConversationID: in.ConversationID})

	case EventSendMessage:
		if in.ConversationID == "" || in.Text == "" || in.SenderID == "" {
			c.reply(errorFrame("conversationId, text and senderId are required"))
			return
		}
		if in.SenderID != c.userID {
			c.reply(errorFrame("Not allowed"))
			return
		}
		_, err := svc.SendMessage(ctx, chat.SendInput{ConversationID: in.ConversationID, Text: in.Text, SenderID: in.SenderID})
		if err != nil {
			c.reply(errorFrame(reason(err)))
		}

	case EventStatusChanged:
		// order status frames are only ever written by the server
		c.reply(errorFrame("Not allowed"))

	default:
		c.reply(errorFrame("Unknown event"))
	}
}

func (c *Client) reply(frame outbound) {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("failed to encode %v frame: %v", frame.Event, err)
		return
	}
	if !c.enqueue(payload) {
		log.Printf("failed to queue %v frame for user %v", frame.Event, c.userID)
	}
}

func reason(err error) string {
	if msg := domain.Reason(err); msg != "" {
		return msg
	}
	log.Printf("websocket event failed: %v", err)
	return "Something went wrong"
}
