package repository

import (
	"context"
	"fmt"

	"github.com/campuskart/campuskart/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func (m *mongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	now := stamp()
	if n.ID == "" {
		n.ID = domain.NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.CreatedAt = bsonTime(n.CreatedAt)
	n.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", translate(err))
	}
	return nil
}

func (m *mongoNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Notification, error) {
	opts := newestFirst().SetLimit(int64(limit))
	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	list := []*domain.Notification{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return list, nil
}

func (m *mongoNotificationRepository) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	var n domain.Notification
	filter := bson.M{"_id": id, "user_id": userID}
	update := bson.M{"$set": bson.M{"is_read": true, "updated_at": stamp()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&n); err != nil {
		return nil, fmt.Errorf("failed to mark notification read: %w", translate(err))
	}
	return &n, nil
}

func (m *mongoNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	filter := bson.M{"user_id": userID, "is_read": false}
	update := bson.M{"$set": bson.M{"is_read": true, "updated_at": stamp()}}
	if _, err := m.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (m *mongoNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}
