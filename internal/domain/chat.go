package domain

import "time"

// Conversation is a two-member chat scoped to a product or an order.
type Conversation struct {
	ID        string    `bson:"_id" json:"id"`
	Members   []string  `bson:"members" json:"members"`
	ProductID string    `bson:"product_id,omitempty" json:"product_id,omitempty"`
	OrderID   string    `bson:"order_id,omitempty" json:"order_id,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func (c *Conversation) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Message is immutable once stored.
type Message struct {
	ID             string    `bson:"_id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversation_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	Text           string    `bson:"text" json:"text"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// MessageView is a stored message with the sender identity resolved.
type MessageView struct {
	Message
	Sender *UserRef `json:"sender,omitempty"`
}
