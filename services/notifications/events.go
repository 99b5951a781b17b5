package notifications

import "go.mongodb.org/mongo-driver/bson/primitive"

type EventType string

const (
	EventOrderCreated          EventType = "order.created"
	EventOrderPaid             EventType = "order.paid"
	EventOrderCancelled        EventType = "order.cancelled"
	EventOrderStatusUpdated    EventType = "order.status_updated"
	EventOrderRefunded         EventType = "order.refunded"
	EventPaymentSucceeded      EventType = "payment.succeeded"
	EventPaymentFailed         EventType = "payment.failed"
	EventPaymentCanceled       EventType = "payment.canceled"
	EventPaymentActionRequired EventType = "payment.action_required"
	EventDisputeCreated        EventType = "payment.dispute_created"
	EventStockLow              EventType = "stock.low"
)

// Event is the typed outbound message producers hand to the notifier.
// Producers never talk to delivery channels directly; the notifier owns
// the template, preference and channel handling.
type Event struct {
	Type EventType
	// UserID is the recipient. Ignored when Broadcast is set.
	UserID primitive.ObjectID
	// Broadcast delivers to every admin user instead of a single recipient.
	Broadcast bool
	Data      map[string]interface{}
}

// Publisher is the producer-side interface. Publish must not block the
// caller on delivery and must never propagate delivery failures.
type Publisher interface {
	Publish(event Event)
}
