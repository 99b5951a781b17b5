package notificationController

import (
	"context"
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
	notifications *mongo.Collection
	users         *mongo.Collection
	log           *logrus.Logger
}

func NewController(notifications, users *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{notifications: notifications, users: users, log: log}
}

// List returns the user's notification inbox, newest first. Pass
// unread=true to see only unread entries.
func (h *Controller) List(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		limit = 20
	}

	filter := bson.M{"userId": userID}
	if c.Query("unread") == "true" {
		filter["read"] = false
	}

	total, err := h.notifications.CountDocuments(ctx, filter)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error counting notifications")
	}
	unread, err := h.notifications.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error counting notifications")
	}

	findOptions := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var items []models.Notification
	cursor, err := h.notifications.Find(ctx, filter, findOptions)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching notifications")
	}
	if err := cursor.All(ctx, &items); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing notifications")
	}

	totalPages := (total + limit - 1) / limit
	return responses.OK(c, fiber.StatusOK, "Fetched notifications", &fiber.Map{
		"currentPage":   page,
		"totalPages":    totalPages,
		"total":         total,
		"unreadCount":   unread,
		"notifications": items,
	})
}

func (h *Controller) MarkRead(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}
	notificationID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid notification ID format")
	}

	result, err := h.notifications.UpdateOne(ctx,
		bson.M{"_id": notificationID, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating notification")
	}
	if result.MatchedCount == 0 {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "Notification not found")
	}

	return responses.OK(c, fiber.StatusOK, "Notification marked as read", nil)
}

func (h *Controller) MarkAllRead(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	result, err := h.notifications.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating notifications")
	}

	return responses.OK(c, fiber.StatusOK, "All notifications marked as read", &fiber.Map{
		"updated": result.ModifiedCount,
	})
}

// SubscribePush registers a browser push subscription. Re-registering the
// same endpoint is a no-op thanks to $addToSet.
func (h *Controller) SubscribePush(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var sub models.PushSubscription
	if err := c.BodyParser(&sub); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "endpoint, p256dh and auth are required")
	}

	_, err = h.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"pushSubscriptions": sub}},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error saving push subscription")
	}

	return responses.OK(c, fiber.StatusCreated, "Push subscription saved", nil)
}

func (h *Controller) UnsubscribePush(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var reqBody struct {
		Endpoint string `json:"endpoint"`
	}
	if err := c.BodyParser(&reqBody); err != nil || reqBody.Endpoint == "" {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "endpoint is required")
	}

	_, err = h.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"pushSubscriptions": bson.M{"endpoint": reqBody.Endpoint}}},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error removing push subscription")
	}

	return responses.OK(c, fiber.StatusOK, "Push subscription removed", nil)
}

// UpdatePreferences sets the per-channel opt-outs. Channels absent from
// the map stay enabled.
func (h *Controller) UpdatePreferences(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var prefs map[string]bool
	if err := c.BodyParser(&prefs); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}

	known := map[string]bool{
		models.ChannelEmail:    true,
		models.ChannelPush:     true,
		models.ChannelInApp:    true,
		models.ChannelRealtime: true,
	}
	for channel := range prefs {
		if !known[channel] {
			return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Unknown notification channel "+channel)
		}
	}

	_, err = h.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"notificationPrefs": prefs}},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error saving preferences")
	}

	return responses.OK(c, fiber.StatusOK, "Notification preferences updated", &fiber.Map{"preferences": prefs})
}
