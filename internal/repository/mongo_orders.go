package repository

import (
	"context"
	"fmt"

	"github.com/campuskart/campuskart/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func (m *mongoOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := stamp()
	if order.ID == "" {
		order.ID = domain.NewID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.CreatedAt = bsonTime(order.CreatedAt)
	order.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", translate(err))
	}
	return nil
}

func (m *mongoOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", translate(err))
	}
	return &order, nil
}

func (m *mongoOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = stamp()

	result, err := m.collection.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoOrderRepository) FindActiveByProduct(ctx context.Context, productID string) (*domain.Order, error) {
	var order domain.Order
	filter := bson.M{"product_id": productID, "status": bson.M{"$in": domain.ActiveStatuses()}}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := m.collection.FindOne(ctx, filter, opts).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to find active order: %w", translate(err))
	}
	return &order, nil
}

func (m *mongoOrderRepository) ListActiveByProduct(ctx context.Context, productID string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"product_id": productID, "status": bson.M{"$in": domain.ActiveStatuses()}})
}

func (m *mongoOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"buyer_id": buyerID})
}

func (m *mongoOrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"seller_id": sellerID})
}

func (m *mongoOrderRepository) ListByRunner(ctx context.Context, runnerID string) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"runner_id": runnerID})
}

func (m *mongoOrderRepository) ListOpenDeliveries(ctx context.Context) ([]*domain.Order, error) {
	return m.find(ctx, bson.M{"status": domain.OrderOpen, "pickup_mode": domain.PickupDelivery})
}

func (m *mongoOrderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	cursor, err := m.collection.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	orders := []*domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
