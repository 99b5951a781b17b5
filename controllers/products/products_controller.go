package productController

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

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/responses"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/inventory"
)

type Controller struct {
	products *mongo.Collection
	catalog  inventory.CatalogStore
	log      *logrus.Logger
}

func NewController(products *mongo.Collection, catalog inventory.CatalogStore, log *logrus.Logger) *Controller {
	return &Controller{products: products, catalog: catalog, log: log}
}

func (h *Controller) GetAllProducts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}
	skip := (page - 1) * limit

	filter := bson.M{"isActive": true}
	if brand := c.Query("brand"); brand != "" {
		filter["brand"] = brand
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}
	if gender := c.Query("gender"); gender != "" {
		filter["gender"] = gender
	}

	totalProducts, err := h.products.CountDocuments(ctx, filter)
	if err != nil {
		h.log.WithError(err).Error("count products failed")
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error counting products")
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var products []models.Product
	cursor, err := h.products.Find(ctx, filter, findOptions)
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching products")
	}
	if err = cursor.All(ctx, &products); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing products")
	}

	totalPages := (totalProducts + limit - 1) / limit
	return responses.OK(c, fiber.StatusOK, "Fetched products", &fiber.Map{
		"currentPage":   page,
		"totalPages":    totalPages,
		"totalProducts": totalProducts,
		"products":      products,
	})
}

func (h *Controller) GetProductByID(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	var product models.Product
	if err := h.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return responses.Error(c, fiber.StatusNotFound, "NotFound", "Product not found")
		}
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error fetching product")
	}

	return responses.OK(c, fiber.StatusOK, "Product fetched successfully", &fiber.Map{"product": product})
}

func (h *Controller) SearchProducts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	query := c.Query("q")
	if query == "" {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Search query is required")
	}

	filter := bson.M{
		"isActive": true,
		"$or": []bson.M{
			{"name": bson.M{"$regex": query, "$options": "i"}},
			{"brand": bson.M{"$regex": query, "$options": "i"}},
			{"category": bson.M{"$regex": query, "$options": "i"}},
		},
	}

	var products []models.Product
	cursor, err := h.products.Find(ctx, filter, options.Find().SetLimit(25))
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error searching products")
	}
	if err := cursor.All(ctx, &products); err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error parsing products")
	}

	return responses.OK(c, fiber.StatusOK, "Search results", &fiber.Map{"products": products})
}

// AddProduct is admin only.
func (h *Controller) AddProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if product.Name == "" || product.Brand == "" || len(product.Variants) == 0 {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Name, brand and at least one variant are required")
	}

	seen := make(map[string]bool, len(product.Variants))
	total := 0
	for i, v := range product.Variants {
		if v.SKU == "" || v.Size == "" || v.Color == "" {
			return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Every variant needs sku, size and color")
		}
		if v.Price <= 0 || v.Stock < 0 {
			return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Variant price must be positive and stock non-negative")
		}
		if seen[v.SKU] {
			return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Duplicate variant SKU "+v.SKU)
		}
		seen[v.SKU] = true
		product.Variants[i].IsActive = true
		total += v.Stock
	}

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.TotalStock = total
	product.IsActive = true
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := h.products.InsertOne(ctx, product); err != nil {
		h.log.WithError(err).Error("insert product failed")
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error creating product")
	}

	return responses.OK(c, fiber.StatusCreated, "Product created successfully", &fiber.Map{"product": product})
}

// UpdateProduct is admin only. Stock is managed through RestockVariant,
// not here, so a stale admin form cannot clobber live inventory counts.
func (h *Controller) UpdateProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	var reqBody struct {
		Name        *string  `json:"name"`
		Brand       *string  `json:"brand"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Gender      *string  `json:"gender"`
		Images      []string `json:"images"`
		IsActive    *bool    `json:"isActive"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if reqBody.Name != nil {
		set["name"] = *reqBody.Name
	}
	if reqBody.Brand != nil {
		set["brand"] = *reqBody.Brand
	}
	if reqBody.Description != nil {
		set["description"] = *reqBody.Description
	}
	if reqBody.Category != nil {
		set["category"] = *reqBody.Category
	}
	if reqBody.Gender != nil {
		set["gender"] = *reqBody.Gender
	}
	if reqBody.Images != nil {
		set["images"] = reqBody.Images
	}
	if reqBody.IsActive != nil {
		set["isActive"] = *reqBody.IsActive
	}

	result, err := h.products.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{"$set": set})
	if err != nil {
		return responses.Error(c, fiber.StatusInternalServerError, "Internal", "Error updating product")
	}
	if result.MatchedCount == 0 {
		return responses.Error(c, fiber.StatusNotFound, "NotFound", "Product not found")
	}

	return responses.OK(c, fiber.StatusOK, "Product updated successfully", nil)
}

// RestockVariant is admin only. It goes through the same conditional
// stock adjustment the checkout path uses.
func (h *Controller) RestockVariant(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
	defer cancel()

	productID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid product ID format")
	}

	var reqBody struct {
		Size     string `json:"size"`
		Color    string `json:"color"`
		Quantity int    `json:"quantity"`
	}
	if err := c.BodyParser(&reqBody); err != nil {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Invalid request format")
	}
	if reqBody.Quantity <= 0 {
		return responses.Error(c, fiber.StatusBadRequest, "ValidationError", "Quantity must be positive")
	}

	newStock, err := h.catalog.AdjustStock(ctx, productID, reqBody.Size, reqBody.Color, reqBody.Quantity)
	if err != nil {
		return responses.MapError(c, err)
	}

	return responses.OK(c, fiber.StatusOK, "Variant restocked", &fiber.Map{"stock": newStock})
}
