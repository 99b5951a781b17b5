package routes

import (
	"github.com/gofiber/fiber/v2"

	paymentController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/payments"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func PaymentsRoutes(app *fiber.App, h *paymentController.Controller) {
	app.Post("/api/orders/:id/payment/intent", middlewares.AuthMiddleware, h.CreateIntent)
	app.Post("/api/orders/:id/payment/confirm", middlewares.AuthMiddleware, h.Confirm)
	app.Post("/api/orders/:id/payment/retry", middlewares.AuthMiddleware, h.Retry)

	app.Post("/api/admin/orders/:id/refund", middlewares.AuthMiddleware, middlewares.AdminMiddleware, h.Refund)

	// Authenticated by signature, not by bearer token.
	app.Post("/api/payments/webhook", h.Webhook)
}
