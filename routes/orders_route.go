package routes

import (
	"github.com/gofiber/fiber/v2"

	orderController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/orders"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func OrdersRoutes(app *fiber.App, h *orderController.Controller) {
	app.Post("/api/orders", middlewares.AuthMiddleware, h.Create)
	app.Get("/api/orders", middlewares.AuthMiddleware, h.List)
	app.Get("/api/orders/:id", middlewares.AuthMiddleware, h.GetByID)
	app.Post("/api/orders/:id/cancel", middlewares.AuthMiddleware, h.Cancel)

	app.Get("/api/admin/orders", middlewares.AuthMiddleware, middlewares.AdminMiddleware, h.ListAll)
	app.Patch("/api/admin/orders/:id/status", middlewares.AuthMiddleware, middlewares.AdminMiddleware, h.UpdateStatus)
}
