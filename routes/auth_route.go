package routes

import (
	"github.com/gofiber/fiber/v2"

	authController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/auth"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
)

func AuthRoutes(app *fiber.App, h *authController.Controller) {
	app.Post("/api/auth/signup", h.SignUp)
	app.Post("/api/auth/signin", h.SignIn)
	app.Get("/api/auth/profile", middlewares.AuthMiddleware, h.GetProfile)
}
