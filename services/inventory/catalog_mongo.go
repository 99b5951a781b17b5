package inventory

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

// MongoCatalog implements CatalogStore on the products collection.
type MongoCatalog struct {
	coll *mongo.Collection
}

func NewMongoCatalog(coll *mongo.Collection) *MongoCatalog {
	return &MongoCatalog{coll: coll}
}

func (m *MongoCatalog) FindVariant(ctx context.Context, productID primitive.ObjectID, size, color string) (*models.Product, *models.Variant, error) {
	var product models.Product
	if err := m.coll.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, err
	}

	variant := product.FindVariant(size, color)
	if variant == nil {
		return nil, nil, ErrVariantNotFound
	}
	return &product, variant, nil
}

// AdjustStock applies delta to the matching variant's stock. The negative
// path is a single conditional update: the filter requires stock >= qty on
// the same variant the $inc targets, so two concurrent buyers of the last
// unit cannot both succeed.
func (m *MongoCatalog) AdjustStock(ctx context.Context, productID primitive.ObjectID, size, color string, delta int) (int, error) {
	match := bson.M{"size": size, "color": color}
	if delta < 0 {
		match["stock"] = bson.M{"$gte": -delta}
		match["isActive"] = true
	}

	filter := bson.M{
		"_id":      productID,
		"variants": bson.M{"$elemMatch": match},
	}
	update := bson.M{
		"$inc": bson.M{
			"variants.$.stock": delta,
			"totalStock":       delta,
		},
		"$currentDate": bson.M{"updatedAt": true},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Product
	if err := m.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if delta < 0 {
				return 0, ErrStockConflict
			}
			return 0, ErrVariantNotFound
		}
		return 0, err
	}

	variant := updated.FindVariant(size, color)
	if variant == nil {
		return 0, ErrVariantNotFound
	}
	return variant.Stock, nil
}
