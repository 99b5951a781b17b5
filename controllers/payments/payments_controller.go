package paymentController

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/responses"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/payments"
)

type Controller struct {
	coordinator *payments.Coordinator
	users       *mongo.Collection
	log         *logrus.Logger
}

func NewController(coordinator *payments.Coordinator, users *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{coordinator: coordinator, users: users, log: log}
}

func (h *Controller) requestUser(ctx context.Context, c *fiber.Ctx) (*models.User, error) {
	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *Controller) CreateIntent(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	user, err := h.requestUser(ctx, c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Could not resolve authenticated user")
	}

	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	result, err := h.coordinator.CreateIntent(ctx, user, orderID)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Payment intent created", &fiber.Map{
		"intentId":     result.IntentID,
		"clientSecret": result.ClientSecret,
	})
}

func (h *Controller) Confirm(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	user, err := h.requestUser(ctx, c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Could not resolve authenticated user")
	}

	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	var reqBody struct {
		PaymentMethodID string `json:"paymentMethodId"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if reqBody.PaymentMethodID == "" {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "paymentMethodId is required")
	}

	result, err := h.coordinator.Confirm(ctx, user, orderID, reqBody.PaymentMethodID)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Payment confirmation submitted", &fiber.Map{
		"status":         result.Status,
		"requiresAction": result.RequiresAction,
	})
}

func (h *Controller) Retry(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	user, err := h.requestUser(ctx, c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Could not resolve authenticated user")
	}

	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	result, err := h.coordinator.Retry(ctx, user, orderID)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "New payment intent created", &fiber.Map{
		"intentId":     result.IntentID,
		"clientSecret": result.ClientSecret,
	})
}

// Refund is admin only.
func (h *Controller) Refund(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	orderID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid order ID format")
	}

	var reqBody struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if reqBody.Amount <= 0 {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Refund amount must be positive")
	}

	order, err := h.coordinator.Refund(ctx, orderID, reqBody.Amount, reqBody.Reason)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Refund issued", &fiber.Map{"order": order})
}

// Webhook receives gateway callbacks. Trust comes from the signature
// over the raw body, not a bearer token. Events for unknown orders are
// acknowledged so the gateway stops retrying them.
func (h *Controller) Webhook(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 20*time.Second)
	defer cancel()

	if err := h.coordinator.HandleWebhook(ctx, c.Body(), c.Get("Stripe-Signature")); err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Webhook processed", nil)
}
