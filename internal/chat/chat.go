package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/repository"
)

// Broadcaster pushes a stored message to every live connection in its conversation.
type Broadcaster interface {
	Broadcast(ctx context.Context, conversationID string, msg *domain.MessageView) error
}

// StartInput opens a conversation with ReceiverID about a product or an order.
type StartInput struct {
	ReceiverID string `json:"receiverId"`
	ProductID  string `json:"productId"`
	OrderID    string `json:"orderId"`
}

// SendInput is one outgoing chat message.
type SendInput struct {
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
	SenderID       string `json:"senderId"`
}

// ConversationView is a conversation with its members resolved.
type ConversationView struct {
	*domain.Conversation
	Participants []*domain.UserRef `json:"participants"`
}

type Service struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	broadcaster   Broadcaster
}

func NewService(store *repository.Store, broadcaster Broadcaster) *Service {
	return &Service{
		conversations: store.Conversations,
		messages:      store.Messages,
		users:         store.Users,
		broadcaster:   broadcaster,
	}
}

// StartConversation finds or creates the conversation between callerID and the receiver in
// the given context.
func (s *Service) StartConversation(ctx context.Context, callerID string, in StartInput) (*domain.Conversation, error) {
	if callerID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	in.ReceiverID = strings.TrimSpace(in.ReceiverID)
	if in.ReceiverID == "" || (in.ProductID == "" && in.OrderID == "") {
		return nil, domain.Validation("receiverId and productId or orderId are required")
	}
	if in.ReceiverID == callerID {
		return nil, domain.Validation("You cannot start a conversation with yourself")
	}
	if _, err := s.users.GetByID(ctx, in.ReceiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to load receiver: %w", err)
	}

	members := []string{callerID, in.ReceiverID}
	conv, err := s.conversations.FindByKey(ctx, members, in.ProductID, in.OrderID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	conv = &domain.Conversation{
		ID:        domain.NewID(),
		Members:   members,
		ProductID: in.ProductID,
		OrderID:   in.OrderID,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns the conversations userID takes part in, most recently active first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]*ConversationView, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	convs, err := s.conversations.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	ids := make([]string, 0, len(convs)*2)
	for _, c := range convs {
		ids = append(ids, c.Members...)
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve members: %w", err)
	}

	views := make([]*ConversationView, 0, len(convs))
	for _, c := range convs {
		v := &ConversationView{Conversation: c, Participants: make([]*domain.UserRef, 0, len(c.Members))}
		for _, m := range c.Members {
			if ref := users[m].Ref(); ref != nil {
				v.Participants = append(v.Participants, ref)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// Authorize checks that userID may read and write conversationID.
func (s *Service) Authorize(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	if userID == "" {
		return nil, domain.Unauthenticated("Not authorized")
	}
	if conversationID == "" {
		return nil, domain.Validation("conversationId is required")
	}
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NotFound("Conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conv.HasMember(userID) {
		return nil, domain.Forbidden("Not a member of this conversation")
	}
	return conv, nil
}

// GetMessages replays the history of a conversation, oldest first.
func (s *Service) GetMessages(ctx context.Context, conversationID, userID string) ([]*domain.MessageView, error) {
	if _, err := s.Authorize(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, 2)
	seen := make(map[string]bool)
	for _, m := range msgs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			ids = append(ids, m.SenderID)
		}
	}
	senders, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve senders: %w", err)
	}

	views := make([]*domain.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, &domain.MessageView{Message: *m, Sender: senders[m.SenderID].Ref()})
	}
	return views, nil
}

// SendMessage stores a message and pushes it to the live members of the conversation. The
// stored row is the source of truth: a failed push is logged and the message is still returned.
func (s *Service) SendMessage(ctx context.Context, in SendInput) (*domain.MessageView, error) {
	if in.ConversationID == "" || strings.TrimSpace(in.Text) == "" || in.SenderID == "" {
		return nil, domain.Validation("conversationId, text and senderId are required")
	}
	if _, err := s.Authorize(ctx, in.ConversationID, in.SenderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:             domain.NewID(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Text:           in.Text,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		log.Printf("failed to store message in conversation %v: %v", in.ConversationID, err)
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	if err := s.conversations.Touch(ctx, in.ConversationID); err != nil {
		log.Printf("failed to touch conversation %v: %v", in.ConversationID, err)
	}

	sender, err := s.users.GetByID(ctx, in.SenderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("failed to resolve sender %v: %v", in.SenderID, err)
	}
	view := &domain.MessageView{Message: *msg, Sender: sender.Ref()}

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(ctx, in.ConversationID, view); err != nil {
			log.Printf("failed to broadcast message %v: %v", msg.ID, err)
		}
	}
	return view, nil
}
