package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/campuskart/campuskart/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoProductRepository struct {
	collection *mongo.Collection
}

func (m *mongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	now := stamp()
	if product.ID == "" {
		product.ID = domain.NewID()
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", translate(err))
	}
	return nil
}

func (m *mongoProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to get product: %w", translate(err))
	}
	return &product, nil
}

func (m *mongoProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	result := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	products, err := m.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

func (m *mongoProductRepository) List(ctx context.Context, f ProductFilter) ([]*domain.Product, error) {
	filter := bson.M{"is_sold": false, "status": domain.ProductOpen}
	if q := strings.TrimSpace(f.Query); q != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	return m.find(ctx, filter)
}

func (m *mongoProductRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	return m.find(ctx, bson.M{"seller_id": sellerID})
}

func (m *mongoProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"is_sold":    status == domain.ProductDelivered,
			"updated_at": stamp(),
		},
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) Delete(ctx context.Context, id string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *mongoProductRepository) find(ctx context.Context, filter bson.M) ([]*domain.Product, error) {
	cursor, err := m.collection.Find(ctx, filter, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}
