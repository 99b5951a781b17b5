package reviewController

import (
	"context"
	"errors"
	"strconv"
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
	reviews *mongo.Collection
	orders  *mongo.Collection
	users   *mongo.Collection
	log     *logrus.Logger
}

func NewController(reviews, orders, users *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{reviews: reviews, orders: orders, users: users, log: log}
}

// Add creates a review. One review per user per product; verified purchase
// means a delivered order of that product exists for the reviewer.
func (h *Controller) Add(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var reqBody struct {
		ProductID string `json:"productId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if reqBody.Rating < 1 || reqBody.Rating > 5 {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Rating must be between 1 and 5")
	}

	productID, err := primitive.ObjectIDFromHex(reqBody.ProductID)
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	count, err := h.reviews.CountDocuments(ctx, bson.M{"productId": productID, "userId": userID})
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error checking existing review")
	}
	if count > 0 {
		return responses.Error(c, fiber.StatusConflict, "AlreadyReviewed", "You have already reviewed this product")
	}

	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "User not found")
	}

	verified := false
	err = h.orders.FindOne(ctx, bson.M{
		"userId":          userID,
		"status":          models.OrderStatusDelivered,
		"items.productId": productID,
	}).Err()
	switch {
	case err == nil:
		verified = true
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		h.log.WithError(err).Warn("verified purchase lookup failed")
	}

	review := models.Review{
		ID:        primitive.NewObjectID(),
		ProductID: productID,
		UserID:    userID,
		UserName:  user.Name,
		Rating:    reqBody.Rating,
		Comment:   reqBody.Comment,
		Verified:  verified,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.reviews.InsertOne(ctx, review); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error saving review")
	}

	return responses.OK(c, fiber.StatusCreated, "Review added successfully", &fiber.Map{"review": review})
}

func (h *Controller) ListByProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("productId"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}

	filter := bson.M{"productId": productID}
	total, err := h.reviews.CountDocuments(ctx, filter)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error counting reviews")
	}

	findOptions := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var reviews []models.Review
	cursor, err := h.reviews.Find(ctx, filter, findOptions)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching reviews")
	}
	if err := cursor.All(ctx, &reviews); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing reviews")
	}

	// Average over every review of the product, not just the current page.
	avg := 0.0
	agg, err := h.reviews.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"productId": productID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$rating"}}}},
	})
	if err == nil {
		var result []bson.M
		if err := agg.All(ctx, &result); err == nil && len(result) > 0 {
			if v, ok := result[0]["avg"].(float64); ok {
				avg = v
			}
		}
	}

	totalPages := (total + limit - 1) / limit
	return responses.OK(c, fiber.StatusOK, "Fetched reviews", &fiber.Map{
		"currentPage":   page,
		"totalPages":    totalPages,
		"totalReviews":  total,
		"averageRating": avg,
		"reviews":       reviews,
	})
}

func (h *Controller) Delete(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}
	reviewID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid review ID format")
	}

	filter := bson.M{"_id": reviewID}
	if !middlewares.IsAdmin(c) {
		filter["userId"] = userID
	}

	result, err := h.reviews.DeleteOne(ctx, filter)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error deleting review")
	}
	if result.DeletedCount == 0 {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "Review not found")
	}

	return responses.OK(c, fiber.StatusOK, "Review deleted", nil)
}
