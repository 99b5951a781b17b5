package routes

import (
	"github.com/gofiber/fiber/v2"

	productController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/products"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func ProductsRoutes(app *fiber.App, h *productController.Controller) {
	app.Get("/api/products", h.GetAllProducts)
	app.Get("/api/products/search", h.SearchProducts)
	app.Get("/api/products/:id", h.GetProductByID)

	app.Post("/api/admin/products", middlewares.AuthMiddleware, middlewares.AdminMiddleware, h.AddProduct)
	app.Patch("/api/admin/products/:id", middlewares.AuthMiddleware, middlewares.AdminMiddleware, h.UpdateProduct)
	app.Post("/api/admin/products/:id/restock", middlewares.AuthMiddleware, middlewares.AdminMiddleware, h.RestockVariant)
}
