package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/configs"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/responses"
)

// AuthMiddleware validates the bearer token and stores the user id and
// role in Locals for the handlers downstream.
func AuthMiddleware(c *fiber.Ctx) error {
	tokenString := ""
	if authHeader := c.Get("Authorization"); authHeader != "" {
		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Invalid authorization header format")
		}
		tokenString = bearerToken[1]
	} else {
		// Browser websocket clients cannot set headers; they pass the
		// token as a query parameter instead.
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "No auth token, access denied")
	}

	claims := &jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(configs.EnvJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "Token verification failed, access denied")
	}

	userId, ok := (*claims)["id"].(string)
	if !ok || userId == "" {
		return responses.Error(c, fiber.StatusUnauthorized, "Unauthorized", "User ID not found in token")
	}

	c.Locals("userId", userId)
	if role, ok := (*claims)["role"].(string); ok {
		c.Locals("role", role)
	}

	return c.Next()
}

// RequestUserID reads the authenticated user's id stored by AuthMiddleware.
func RequestUserID(c *fiber.Ctx) (primitive.ObjectID, error) {
	userId, _ := c.Locals("userId").(string)
	return primitive.ObjectIDFromHex(userId)
}

// IsAdmin reports whether the authenticated user carries the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals("role").(string)
	return role == models.UserTypeAdmin
}

// AdminMiddleware must run after AuthMiddleware. It reveals nothing about
// the resource beyond the role requirement.
func AdminMiddleware(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != models.UserTypeAdmin {
		return responses.Error(c, fiber.StatusForbidden, "Forbidden", "Admin role required")
	}
	return c.Next()
}
