package ws

import "github.com/campuskart/campuskart/internal/domain"

const (
	EventJoin          = "join"
	EventJoined        = "joined"
	EventSendMessage   = "sendMessage"
	EventNewMessage    = "newMessage"
	EventStatusChanged = "statusChanged"
	EventError         = "error"
)

type inbound struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId,omitempty"`
	Text           string `json:"text,omitempty"`
	SenderID       string `json:"senderId,omitempty"`
}

// outbound is every frame the server writes. Message holds the stored message for
// newMessage and the reason text for error.
type outbound struct {
	Event          string `json:"event"`
	ConversationID string `json:"conversationId,omitempty"`
	Message        any    `json:"message,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	Status         string `json:"status,omitempty"`
}

func errorFrame(msg string) outbound {
	return outbound{Event: EventError, Message: msg}
}

func newMessageFrame(msg *domain.MessageView) outbound {
	return outbound{Event: EventNewMessage, ConversationID: msg.ConversationID, Message: msg}
}
