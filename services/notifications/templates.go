package notifications

import (
	"fmt"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

// channelsFor is the static per-type template: which channels an event
// type may use. The recipient's preferences are intersected on top.
// The in-app record is always written, so it is not listed here.
func channelsFor(t EventType) []string {
	switch t {
	case EventOrderCreated, EventOrderCancelled, EventOrderStatusUpdated:
		return []string{models.ChannelEmail, models.ChannelRealtime}
	case EventPaymentSucceeded, EventOrderRefunded:
		return []string{models.ChannelEmail, models.ChannelPush, models.ChannelRealtime}
	case EventPaymentFailed, EventPaymentCanceled, EventPaymentActionRequired:
		return []string{models.ChannelEmail, models.ChannelPush, models.ChannelRealtime}
	case EventOrderPaid, EventDisputeCreated, EventStockLow:
		// Admin-facing alerts.
		return []string{models.ChannelEmail, models.ChannelRealtime}
	default:
		return []string{models.ChannelRealtime}
	}
}

func render(ev Event) (title, message string) {
	orderNumber, _ := ev.Data["orderNumber"].(string)

	switch ev.Type {
	case EventOrderCreated:
		return "Order placed", fmt.Sprintf("Your order %s has been placed and is awaiting payment.", orderNumber)
	case EventPaymentSucceeded:
		return "Payment confirmed", fmt.Sprintf("Payment for order %s was successful. We're getting it ready.", orderNumber)
	case EventPaymentFailed:
		reason, _ := ev.Data["reason"].(string)
		if reason == "" {
			reason = "the payment could not be processed"
		}
		return "Payment failed", fmt.Sprintf("Payment for order %s failed: %s. You can retry from your orders page.", orderNumber, reason)
	case EventPaymentCanceled:
		return "Payment cancelled", fmt.Sprintf("Payment for order %s was cancelled.", orderNumber)
	case EventPaymentActionRequired:
		return "Action required", fmt.Sprintf("Your payment for order %s needs an extra verification step.", orderNumber)
	case EventOrderRefunded:
		amount, _ := ev.Data["amount"].(float64)
		return "Refund issued", fmt.Sprintf("A refund of $%.2f was issued for order %s.", amount, orderNumber)
	case EventOrderCancelled:
		return "Order cancelled", fmt.Sprintf("Order %s has been cancelled.", orderNumber)
	case EventOrderStatusUpdated:
		status, _ := ev.Data["status"].(string)
		return "Order update", fmt.Sprintf("Order %s is now %s.", orderNumber, status)
	case EventOrderPaid:
		return "New paid order", fmt.Sprintf("Order %s has been paid and is ready for processing.", orderNumber)
	case EventDisputeCreated:
		amount, _ := ev.Data["amount"].(float64)
		return "Payment dispute", fmt.Sprintf("A dispute of $%.2f was opened on order %s. Manual review needed.", amount, orderNumber)
	case EventStockLow:
		sku, _ := ev.Data["sku"].(string)
		remaining, _ := ev.Data["remaining"].(int)
		return "Low stock", fmt.Sprintf("Variant %s is down to %d units.", sku, remaining)
	default:
		return string(ev.Type), ""
	}
}
