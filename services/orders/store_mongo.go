package orders

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

// MongoStore persists orders. It also serves the payment coordinator's
// lookups by gateway intent id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (m *MongoStore) Insert(ctx context.Context, order *models.Order) error {
	_, err := m.coll.InsertOne(ctx, order)
	return err
}

func (m *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (m *MongoStore) FindByIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var order models.Order
	if err := m.coll.FindOne(ctx, bson.M{"payment.intentId": intentID}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (m *MongoStore) Update(ctx context.Context, order *models.Order) error {
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateFromStatus replaces the order only when its stored status still
// matches prev. A zero match means another writer flipped the status
// first.
func (m *MongoStore) UpdateFromStatus(ctx context.Context, order *models.Order, prev models.OrderStatus) error {
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": order.ID, "status": prev}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MongoCartSource reads the cart embedded on the user document.
type MongoCartSource struct {
	coll *mongo.Collection
}

func NewMongoCartSource(coll *mongo.Collection) *MongoCartSource {
	return &MongoCartSource{coll: coll}
}

func (m *MongoCartSource) Load(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error) {
	var user models.User
	if err := m.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return user.Cart, nil
}

func (m *MongoCartSource) Clear(ctx context.Context, userID primitive.ObjectID) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"cart": []models.CartItem{}}},
	)
	return err
}
