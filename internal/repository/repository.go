package repository

import (
	"context"
	"errors"

	"github.com/campuskart/campuskart/internal/domain"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

// ProductFilter narrows the public product listing. Zero values mean "no filter".
type ProductFilter struct {
	Query    string
	Category domain.Category
	MinPrice *float64
	MaxPrice *float64
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error)
	// UpdateStatus writes status and the matching isSold flag.
	UpdateStatus(ctx context.Context, id string, status domain.ProductStatus) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Update replaces the stored order. There is no version check: last write wins.
	Update(ctx context.Context, order *domain.Order) error
	// FindActiveByProduct returns the non-terminal order referencing the product, or ErrNotFound.
	FindActiveByProduct(ctx context.Context, productID string) (*domain.Order, error)
	ListActiveByProduct(ctx context.Context, productID string) ([]*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
	ListByRunner(ctx context.Context, runnerID string) ([]*domain.Order, error)
	// ListOpenDeliveries returns OPEN delivery-mode orders still looking for a runner.
	ListOpenDeliveries(ctx context.Context) ([]*domain.Order, error)
}

type ConversationRepository interface {
	// FindByKey looks up the conversation between exactly these members in the given context.
	FindByKey(ctx context.Context, members []string, productID, orderID string) (*domain.Conversation, error)
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListByMember(ctx context.Context, userID string) ([]*domain.Conversation, error)
	Touch(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByConversation returns messages oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ListByUser returns at most limit notifications, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error)
	// MarkRead returns ErrNotFound when the notification does not belong to the user.
	MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type OutboxRepository interface {
	Append(ctx context.Context, events []*domain.OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
	// MarkEventAsFailed bumps the attempt counter and records the error.
	MarkEventAsFailed(ctx context.Context, id string, cause error) error
}

// Store bundles every repository a process needs.
type Store struct {
	Users         UserRepository
	Products      ProductRepository
	Orders        OrderRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	Notifications NotificationRepository
	Outbox        OutboxRepository
}
