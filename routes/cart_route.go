package routes

import (
	"github.com/gofiber/fiber/v2"

	cartController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/cart"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func CartRoutes(app *fiber.App, h *cartController.Controller) {
	app.Post("/api/cart", middlewares.AuthMiddleware, h.AddToCart)
	app.Delete("/api/cart", middlewares.AuthMiddleware, h.RemoveFromCart)
	app.Get("/api/cart", middlewares.AuthMiddleware, h.GetCart)
}
