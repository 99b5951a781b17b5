package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_created_total",
		Help: "Orders successfully created.",
	})

	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_cancelled_total",
		Help: "Orders cancelled by the customer or staff.",
	})

	StockReservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_stock_reservations_total",
		Help: "Stock reservation attempts by outcome.",
	}, []string{"outcome"})

	PaymentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_payment_events_total",
		Help: "Payment gateway webhook events applied, by kind.",
	}, []string{"kind"})

	NotificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_notification_deliveries_total",
		Help: "Notification channel deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})
)
