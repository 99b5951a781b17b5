package routes

import (
	"github.com/gofiber/fiber/v2"

	wishlistController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/wishlist"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func WishlistRoutes(app *fiber.App, h *wishlistController.Controller) {
	app.Get("/api/wishlist", middlewares.AuthMiddleware, h.Get)
	app.Post("/api/wishlist", middlewares.AuthMiddleware, h.Add)
	app.Delete("/api/wishlist/:productId", middlewares.AuthMiddleware, h.Remove)
}
