package routes

import (
	"github.com/gofiber/fiber/v2"

	notificationController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/notifications"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func NotificationsRoutes(app *fiber.App, h *notificationController.Controller) {
	app.Get("/api/notifications", middlewares.AuthMiddleware, h.List)
	app.Patch("/api/notifications/read-all", middlewares.AuthMiddleware, h.MarkAllRead)
	app.Patch("/api/notifications/:id/read", middlewares.AuthMiddleware, h.MarkRead)

	app.Post("/api/notifications/push-subscriptions", middlewares.AuthMiddleware, h.SubscribePush)
	app.Delete("/api/notifications/push-subscriptions", middlewares.AuthMiddleware, h.UnsubscribePush)
	app.Put("/api/notifications/preferences", middlewares.AuthMiddleware, h.UpdatePreferences)
}
