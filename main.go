package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/configs"
	authController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/auth"
	cartController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/cart"
	notificationController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/notifications"
	orderController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/orders"
	paymentController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/payments"
	productController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/products"
	reviewController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/reviews"
	wishlistController "github.com/Matthew-Ayinde/shoe-api2-sub000/controllers/wishlist"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/realtime"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/routes"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/inventory"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/notifications"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/orders"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/payments"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	client := configs.ConnectDB()
	usersColl := configs.GetCollection(client, "users")
	productsColl := configs.GetCollection(client, "products")
	ordersColl := configs.GetCollection(client, "orders")
	reviewsColl := configs.GetCollection(client, "reviews")
	wishlistsColl := configs.GetCollection(client, "wishlists")
	notificationsColl := configs.GetCollection(client, "notifications")

	hub := realtime.NewHub(log)

	emailSender := notifications.NewSMTPSender(
		configs.EnvSMTPHost(),
		configs.EnvSMTPPort(),
		configs.EnvSMTPUser(),
		configs.EnvSMTPPassword(),
		configs.EnvSMTPFrom(),
	)
	pushSender := notifications.NewWebPushSender(
		configs.EnvVAPIDPublicKey(),
		configs.EnvVAPIDPrivateKey(),
		configs.EnvVAPIDSubject(),
	)
	notifier := notifications.NewNotifier(
		notifications.NewMongoStore(notificationsColl),
		notifications.NewMongoUserSource(usersColl),
		emailSender,
		pushSender,
		hub,
		log,
	)

	catalog := inventory.NewMongoCatalog(productsColl)
	reserver := inventory.NewReserver(catalog, log)
	reserver.OnLowStock(func(product *models.Product, variant models.Variant, remaining int) {
		notifier.Publish(notifications.Event{
			Type:      notifications.EventStockLow,
			Broadcast: true,
			Data: map[string]interface{}{
				"productId": product.ID.Hex(),
				"name":      product.Name,
				"sku":       variant.SKU,
				"remaining": remaining,
			},
		})
	})

	orderSvc := orders.NewService(
		catalog,
		orders.NewMongoStore(ordersColl),
		orders.NewMongoCartSource(usersColl),
		reserver,
		notifier,
		orders.DefaultPricing(),
		log,
	)

	gateway := payments.NewStripeGateway(configs.EnvStripeSecretKey(), configs.EnvStripeWebhookSecret())
	coordinator := payments.NewCoordinator(
		orders.NewMongoStore(ordersColl),
		payments.NewMongoUserStore(usersColl),
		gateway,
		notifier,
		log,
	)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(cors.New())

	routes.AuthRoutes(app, authController.NewController(usersColl, log))
	routes.ProductsRoutes(app, productController.NewController(productsColl, catalog, log))
	routes.CartRoutes(app, cartController.NewController(usersColl, productsColl, log))
	routes.OrdersRoutes(app, orderController.NewController(orderSvc, usersColl, ordersColl, log))
	routes.PaymentsRoutes(app, paymentController.NewController(coordinator, usersColl, log))
	routes.ReviewsRoutes(app, reviewController.NewController(reviewsColl, ordersColl, usersColl, log))
	routes.WishlistRoutes(app, wishlistController.NewController(wishlistsColl, productsColl, log))
	routes.NotificationsRoutes(app, notificationController.NewController(notificationsColl, usersColl, log))
	routes.RealtimeRoute(app, hub)
	routes.SystemRoutes(app, client)

	if err := app.Listen(":" + configs.EnvPort()); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
