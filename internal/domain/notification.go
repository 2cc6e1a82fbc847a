package domain

import "time"

type NotificationType string

const (
	NotificationOrderStatus     NotificationType = "ORDER_STATUS"
	NotificationNewRequest      NotificationType = "NEW_REQUEST"
	NotificationRunnerAssigned  NotificationType = "RUNNER_ASSIGNED"
	NotificationPickupRequested NotificationType = "PICKUP_REQUESTED"
)

type Notification struct {
	ID        string           `bson:"_id" json:"id"`
	UserID    string           `bson:"user_id" json:"user_id"`
	Title     string           `bson:"title" json:"title"`
	Message   string           `bson:"message" json:"message"`
	OrderID   string           `bson:"order_id,omitempty" json:"order_id,omitempty"`
	IsRead    bool             `bson:"is_read" json:"is_read"`
	Type      NotificationType `bson:"type" json:"type"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at" json:"updated_at"`
}

// Effect is a fact produced by an order transition: somebody has to be told something.
// Transitions return effects instead of writing notifications themselves.
type Effect struct {
	Recipient string           `bson:"recipient" json:"recipient"`
	Title     string           `bson:"title" json:"title"`
	Message   string           `bson:"message" json:"message"`
	OrderID   string           `bson:"order_id,omitempty" json:"order_id,omitempty"`
	Type      NotificationType `bson:"type" json:"type"`
}

// Notify builds an effect; an empty recipient yields nothing.
func Notify(recipient, orderID string, typ NotificationType, title, message string) []Effect {
	if recipient == "" {
		return nil
	}
	if typ == "" {
		typ = NotificationOrderStatus
	}
	return []Effect{{Recipient: recipient, Title: title, Message: message, OrderID: orderID, Type: typ}}
}

// NewNotification materializes an effect into the recipient's mailbox entry.
func NewNotification(e Effect, now time.Time) *Notification {
	typ := e.Type
	if typ == "" {
		typ = NotificationOrderStatus
	}
	return &Notification{
		ID:        NewID(),
		UserID:    e.Recipient,
		Title:     e.Title,
		Message:   e.Message,
		OrderID:   e.OrderID,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OutboxEvent is an effect waiting for the delivery worker.
type OutboxEvent struct {
	ID          string     `bson:"_id" json:"id"`
	AggregateID string     `bson:"aggregate_id" json:"aggregate_id"`
	EventType   string     `bson:"event_type" json:"event_type"`
	Effect      Effect     `bson:"effect" json:"effect"`
	Attempts    int        `bson:"attempts" json:"attempts"`
	LastError   string     `bson:"last_error,omitempty" json:"last_error,omitempty"`
	ProcessedAt *time.Time `bson:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

const EventTypeNotification = "notification"

// OutboxEventsFor wraps effects of one order into outbox rows.
func OutboxEventsFor(aggregateID string, effects []Effect, now time.Time) []*OutboxEvent {
	events := make([]*OutboxEvent, 0, len(effects))
	for _, e := range effects {
		events = append(events, &OutboxEvent{
			ID:          NewID(),
			AggregateID: aggregateID,
			EventType:   EventTypeNotification,
			Effect:      e,
			CreatedAt:   now,
		})
	}
	return events
}
