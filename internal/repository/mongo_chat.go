package repository

import (
	"context"
	"fmt"

	"github.com/campuskart/campuskart/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoConversationRepository struct {
	collection *mongo.Collection
}

func (m *mongoConversationRepository) FindByKey(ctx context.Context, members []string, productID, orderID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	filter := bson.M{
		"members":    memberKey(members),
		"product_id": optional(productID),
		"order_id":   optional(orderID),
	}
	if err := m.collection.FindOne(ctx, filter).Decode(&conv); err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", translate(err))
	}
	return &conv, nil
}

func (m *mongoConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	now := stamp()
	if conv.ID == "" {
		conv.ID = domain.NewID()
	}
	conv.Members = memberKey(conv.Members)
	conv.CreatedAt = now
	conv.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to create conversation: %w", translate(err))
	}
	return nil
}

func (m *mongoConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", translate(err))
	}
	return &conv, nil
}

func (m *mongoConversationRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	convs := []*domain.Conversation{}
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return convs, nil
}

func (m *mongoConversationRepository) Touch(ctx context.Context, id string) error {
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"updated_at": stamp()}})
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}

type mongoMessageRepository struct {
	collection *mongo.Collection
}

func (m *mongoMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = domain.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = stamp()
	}
	msg.CreatedAt = bsonTime(msg.CreatedAt)
	if _, err := m.collection.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", translate(err))
	}
	return nil
}

func (m *mongoMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.collection.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	msgs := []*domain.Message{}
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}
