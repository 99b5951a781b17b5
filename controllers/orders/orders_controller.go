package orderController

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
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/orders"
)

type Controller struct {
	svc    *orders.Service
	users  *mongo.Collection
	orders *mongo.Collection
	log    *logrus.Logger
}

func NewController(svc *orders.Service, users, ordersColl *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{svc: svc, users: users, orders: ordersColl, log: log}
}

// Create places an order either from explicit items in the body or, when
// none are given, from the user's persisted cart.
func (h *Controller) Create(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var in orders.CheckoutInput
	if err := c.BodyParser(&in); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if in.ShippingAddress.StreetAddress == "" || in.ShippingAddress.City == "" {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Shipping address is required")
	}
	if in.ShippingMethod == "" {
		in.ShippingMethod = orders.ShippingStandard
	}

	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "User not found")
	}

	order, err := h.svc.Checkout(ctx, &user, in)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusCreated, "Order placed successfully", &fiber.Map{"order": order})
}

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
	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}

	filter := bson.M{"userId": userID}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	totalOrders, err := h.orders.CountDocuments(ctx, filter)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error counting orders")
	}

	findOptions := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var orderList []models.Order
	cursor, err := h.orders.Find(ctx, filter, findOptions)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching orders")
	}
	if err := cursor.All(ctx, &orderList); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing orders")
	}

	totalPages := (totalOrders + limit - 1) / limit
	return responses.OK(c, fiber.StatusOK, "Fetched orders", &fiber.Map{
		"currentPage": page,
		"totalPages":  totalPages,
		"totalOrders": totalOrders,
		"orders":      orderList,
	})
}

func (h *Controller) GetByID(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}
	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	var order models.Order
	if err := h.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "Order not found")
	}
	if order.UserID != userID && !middlewares.IsAdmin(c) {
		return responses.Error(c, fiber.StatusForbidden, "Forbidden", "You do not have access to this resource")
	}

	return responses.OK(c, fiber.StatusOK, "Order fetched successfully", &fiber.Map{"order": order})
}

func (h *Controller) Cancel(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}
	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	order, err := h.svc.Cancel(ctx, orderID, userID, middlewares.IsAdmin(c))
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Order cancelled", &fiber.Map{"order": order})
}

// UpdateStatus is admin only.
func (h *Controller) UpdateStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	var reqBody struct {
		Status string `json:"status"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}

	order, err := h.svc.UpdateStatus(ctx, orderID, models.OrderStatus(reqBody.Status), reqBody.Note)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Order status updated", &fiber.Map{"order": order})
}

// ListAll is admin only and spans every customer.
func (h *Controller) ListAll(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if err != nil || limit < 1 {
		limit = 20
	}

	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	totalOrders, err := h.orders.CountDocuments(ctx, filter)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error counting orders")
	}

	findOptions := options.Find().
		SetSkip((page - 1) * limit).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var orderList []models.Order
	cursor, err := h.orders.Find(ctx, filter, findOptions)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching orders")
	}
	if err := cursor.All(ctx, &orderList); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing orders")
	}

	totalPages := (totalOrders + limit - 1) / limit
	return responses.OK(c, fiber.StatusOK, "Fetched orders", &fiber.Map{
		"currentPage": page,
		"totalPages":  totalPages,
		"totalOrders": totalOrders,
		"orders":      orderList,
	})
}
