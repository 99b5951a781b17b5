package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/middlewares"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/realtime"
)

// RealtimeRoute upgrades authenticated clients to a websocket and keeps
// them registered with the hub until the connection drops. The server
// only pushes; inbound frames are read and discarded to observe close.
func RealtimeRoute(app *fiber.App, hub *realtime.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})

	app.Get("/ws/notifications", middlewares.AuthMiddleware, websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("userId").(string)
		if userID == "" {
			_ = c.Close()
			return
		}

		hub.Register(userID, c)
		defer func() {
			hub.Deregister(userID, c)
			_ = c.Close()
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}
