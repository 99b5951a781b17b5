package notifications

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

var ErrUserNotFound = errors.New("user not found")

// MongoStore persists notification records in the notifications collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Insert(ctx context.Context, n *models.Notification) error {
	_, err := m.coll.InsertOne(ctx, n)
	return err
}

// MongoUserSource resolves notification recipients from the users collection.
type MongoUserSource struct {
	coll *mongo.Collection
}

func NewMongoUserSource(coll *mongo.Collection) *MongoUserSource {
	return &MongoUserSource{coll: coll}
}

func (m *MongoUserSource) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (m *MongoUserSource) FindAdmins(ctx context.Context) ([]models.User, error) {
	cursor, err := m.coll.Find(ctx, bson.M{"type": models.UserTypeAdmin})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var admins []models.User
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

func (m *MongoUserSource) RemovePushSubscription(ctx context.Context, userID primitive.ObjectID, endpoint string) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"pushSubscriptions": bson.M{"endpoint": endpoint}}},
	)
	return err
}
