package wishlistController

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/responses"
)

type Controller struct {
	wishlists *mongo.Collection
	products  *mongo.Collection
	log       *logrus.Logger
}

func NewController(wishlists, products *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{wishlists: wishlists, products: products, log: log}
}

func (h *Controller) Add(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var reqBody struct {
		ProductID string `json:"productId"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	productID, err := primitive.ObjectIDFromHex(reqBody.ProductID)
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	count, err := h.products.CountDocuments(ctx, bson.M{"_id": productID, "isActive": true})
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error checking product")
	}
	if count == 0 {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "Product not found")
	}

	_, err = h.wishlists.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$addToSet": bson.M{"productIds": productID},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating wishlist")
	}

	return responses.OK(c, fiber.StatusOK, "Added to wishlist", nil)
}

func (h *Controller) Remove(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}
	productID, err := primitive.ObjectIDFromHex(c.Params("productId"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	_, err = h.wishlists.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$pull": bson.M{"productIds": productID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating wishlist")
	}

	return responses.OK(c, fiber.StatusOK, "Removed from wishlist", nil)
}

// Get resolves wishlist entries against the catalog. Deactivated products
// stay in the list but come back flagged unavailable.
func (h *Controller) Get(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var wishlist models.Wishlist
	err = h.wishlists.FindOne(ctx, bson.M{"userId": userID}).Decode(&wishlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return responses.OK(c, fiber.StatusOK, "Wishlist fetched successfully", &fiber.Map{"products": []models.Product{}})
		}
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching wishlist")
	}

	products := []models.Product{}
	if len(wishlist.ProductIDs) > 0 {
		cursor, err := h.products.Find(ctx, bson.M{"_id": bson.M{"$in": wishlist.ProductIDs}})
		if err != nil {
			return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching wishlist products")
		}
		if err := cursor.All(ctx, &products); err != nil {
			return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing wishlist products")
		}
	}

	return responses.OK(c, fiber.StatusOK, "Wishlist fetched successfully", &fiber.Map{"products": products})
}
