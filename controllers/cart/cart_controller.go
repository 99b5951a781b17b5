package cartController

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/responses"
)

type Controller struct {
	users    *mongo.Collection
	products *mongo.Collection
	log      *logrus.Logger
}

func NewController(users, products *mongo.Collection, log *logrus.Logger) *Controller {
	return &Controller{users: users, products: products, log: log}
}

func (h *Controller) AddToCart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var reqBody struct {
		ProductID string `json:"productId"`
		Size      string `json:"size"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if reqBody.Quantity <= 0 {
		reqBody.Quantity = 1
	}

	productID, err := primitive.ObjectIDFromHex(reqBody.ProductID)
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	var product models.Product
	if err := h.products.FindOne(ctx, bson.M{"_id": productID, "isActive": true}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return responses.Error(c, fiber.StatusNotFound, "NotFound", "Product not found")
		}
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching product")
	}

	variant := product.FindVariant(reqBody.Size, reqBody.Color)
	if variant == nil {
		return responses.Error(c, fiber.StatusBadRequest, "VariantUnavailable", "Requested size and color is not available")
	}
	if !variant.IsActive {
		return responses.Error(c, fiber.StatusBadRequest, "InactiveVariant", "This variant is no longer sold")
	}
	if variant.Stock < reqBody.Quantity {
		return responses.Error(c, fiber.StatusBadRequest, "InsufficientStock", "Not enough stock for the requested quantity")
	}

	// Bump the quantity when the same variant is already in the cart.
	matched, err := h.users.UpdateOne(ctx,
		bson.M{"_id": userID, "cart": bson.M{"$elemMatch": bson.M{
			"productId": productID,
			"size":      reqBody.Size,
			"color":     reqBody.Color,
		}}},
		bson.M{"$inc": bson.M{"cart.$.quantity": reqBody.Quantity}},
	)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating cart")
	}
	if matched.MatchedCount == 0 {
		item := models.CartItem{
			ProductID: productID,
			Size:      reqBody.Size,
			Color:     reqBody.Color,
			Quantity:  reqBody.Quantity,
		}
		if _, err := h.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$push": bson.M{"cart": item}}); err != nil {
			return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating cart")
		}
	}

	return responses.OK(c, fiber.StatusOK, "Added to cart", nil)
}

func (h *Controller) RemoveFromCart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var reqBody struct {
		ProductID string `json:"productId"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}

	productID, err := primitive.ObjectIDFromHex(reqBody.ProductID)
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	pull := bson.M{"productId": productID}
	if reqBody.Size != "" {
		pull["size"] = reqBody.Size
	}
	if reqBody.Color != "" {
		pull["color"] = reqBody.Color
	}

	if _, err := h.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"cart": pull}}); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating cart")
	}

	return responses.OK(c, fiber.StatusOK, "Removed from cart", nil)
}

// GetCart resolves each cart line against the catalog so the client always
// sees current prices and availability, not whatever was true at add time.
func (h *Controller) GetCart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	userID, err := middlewares.RequestUserID(c)
	if err != nil {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid user ID in token")
	}

	var user models.User
	if err := h.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "User not found")
	}

	items := make([]fiber.Map, 0, len(user.Cart))
	subtotal := 0.0
	for _, line := range user.Cart {
		var product models.Product
		if err := h.products.FindOne(ctx, bson.M{"_id": line.ProductID}).Decode(&product); err != nil {
			continue
		}
		variant := product.FindVariant(line.Size, line.Color)
		available := product.IsActive && variant != nil && variant.IsActive

		entry := fiber.Map{
			"productId": line.ProductID,
			"name":      product.Name,
			"brand":     product.Brand,
			"image":     product.MainImage(),
			"size":      line.Size,
			"color":     line.Color,
			"quantity":  line.Quantity,
			"available": available,
		}
		if variant != nil {
			entry["price"] = variant.Price
			entry["inStock"] = variant.Stock >= line.Quantity
			if available {
				subtotal += variant.Price * float64(line.Quantity)
			}
		}
		items = append(items, entry)
	}

	return responses.OK(c, fiber.StatusOK, "Cart fetched successfully", &fiber.Map{
		"items":    items,
		"subtotal": subtotal,
	})
}
