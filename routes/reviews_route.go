package routes

import (
	"github.com/gofiber/fiber/v2"

	reviewController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/reviews"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func ReviewsRoutes(app *fiber.App, h *reviewController.Controller) {
	app.Get("/api/products/:productId/reviews", h.ListByProduct)
	app.Post("/api/reviews", middlewares.AuthMiddleware, h.Add)
	app.Delete("/api/reviews/:id", middlewares.AuthMiddleware, h.Delete)
}
