package repository

import (
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection         = "users"
	productsCollection      = "products"
	ordersCollection        = "orders"
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	notificationsCollection = "notifications"
	outboxCollection        = "outbox"
)

// NewMongoStore wires every repository to its collection in db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:         &mongoUserRepository{collection: db.Collection(usersCollection)},
		Products:      &mongoProductRepository{collection: db.Collection(productsCollection)},
		Orders:        &mongoOrderRepository{collection: db.Collection(ordersCollection)},
		Conversations: &mongoConversationRepository{collection: db.Collection(conversationsCollection)},
		Messages:      &mongoMessageRepository{collection: db.Collection(messagesCollection)},
		Notifications: &mongoNotificationRepository{collection: db.Collection(notificationsCollection)},
		Outbox:        &mongoOutboxRepository{collection: db.Collection(outboxCollection)},
	}
}

// bsonTime is t as it reads back from a BSON date: UTC, millisecond precision, no monotonic reading.
func bsonTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func stamp() time.Time {
	return bsonTime(time.Now())
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

// translate maps driver errors onto repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

// optional matches a missing field when v is empty.
func optional(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}

// memberKey is the canonical, order-independent form of a member set.
func memberKey(members []string) []string {
	key := append([]string(nil), members...)
	sort.Strings(key)
	return key
}
