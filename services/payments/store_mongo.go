package payments

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserStore persists gateway identities on the users collection.
type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(coll *mongo.Collection) *MongoUserStore {
	return &MongoUserStore{coll: coll}
}

func (m *MongoUserStore) SetGatewayCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error {
	// SetOnInsert-style guard: only write when unset so a concurrent
	// creation cannot flip an already persisted identity.
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "gatewayCustomerId": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{"gatewayCustomerId": customerID}},
	)
	return err
}
