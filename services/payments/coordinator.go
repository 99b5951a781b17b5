// Package payments coordinates the order's payment lifecycle with the
// external gateway: intent creation and confirmation, refunds, retries
// and asynchronous webhook events.
//
// Payment status moves independently of order status:
// pending -> completed | failed | cancelled; completed -> refunded |
// partially_refunded.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/metrics"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/notifications"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/orders"
)

type OrderStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}

// UserStore persists the gateway customer identity on the user.
type UserStore interface {
	SetGatewayCustomerID(ctx context.Context, userID primitive.ObjectID, customerID string) error
}

type CreateIntentResult struct {
	IntentID     string `json:"intentId"`
	ClientSecret string `json:"clientSecret"`
}

type ConfirmResult struct {
	Status         string `json:"status"`
	RequiresAction bool   `json:"requiresAction"`
}

type Coordinator struct {
	orders  OrderStore
	users   UserStore
	gateway Gateway
	events  notifications.Publisher
	log     *logrus.Logger

	currency       string
	gatewayTimeout time.Duration
}

func NewCoordinator(orders OrderStore, users UserStore, gateway Gateway, events notifications.Publisher, log *logrus.Logger) *Coordinator {
	return &Coordinator{
		orders:         orders,
		users:          users,
		gateway:        gateway,
		events:         events,
		log:            log,
		currency:       "usd",
		gatewayTimeout: 15 * time.Second,
	}
}

// CreateIntent opens a payment intent for an order whose payment is still
// pending. The gateway customer is created on first use and the id is
// persisted so retries and later orders reuse it.
func (c *Coordinator) CreateIntent(ctx context.Context, user *models.User, orderID primitive.ObjectID) (*CreateIntentResult, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.Id {
		return nil, ErrForbidden
	}
	if order.Payment.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment status is %s", ErrInvalidState, order.Payment.Status)
	}

	return c.openIntent(ctx, user, order, "create_intent")
}

func (c *Coordinator) openIntent(ctx context.Context, user *models.User, order *models.Order, action string) (*CreateIntentResult, error) {
	gctx, cancel := context.WithTimeout(ctx, c.gatewayTimeout)
	defer cancel()

	customerID := user.GatewayCustomerID
	if customerID == "" {
		id, err := c.gateway.CreateCustomer(gctx, user)
		if err != nil {
			return nil, err
		}
		if err := c.users.SetGatewayCustomerID(ctx, user.Id, id); err != nil {
			return nil, err
		}
		user.GatewayCustomerID = id
		customerID = id
	}

	intent, err := c.gateway.CreateIntent(gctx, toCents(order.Total), c.currency, customerID, map[string]string{
		"orderId":     order.ID.Hex(),
		"orderNumber": order.OrderNumber,
		"userId":      user.Id.Hex(),
	})
	if err != nil {
		return nil, err
	}

	order.Payment.IntentID = intent.ID
	order.Payment.Status = models.PaymentStatusPending
	order.Payment.FailureCode = ""
	order.Payment.FailureMessage = ""
	appendAttempt(order, order.Total, intent.Status, action)

	if err := c.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return &CreateIntentResult{IntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// Confirm re-submits a payment method against the existing intent. A
// requires_action status is surfaced distinctly so the client can run the
// step-up challenge instead of treating it as success or failure.
func (c *Coordinator) Confirm(ctx context.Context, user *models.User, orderID primitive.ObjectID, paymentMethodID string) (*ConfirmResult, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.Id {
		return nil, ErrForbidden
	}
	if order.Payment.IntentID == "" {
		return nil, fmt.Errorf("%w: no payment intent exists", ErrInvalidState)
	}

	gctx, cancel := context.WithTimeout(ctx, c.gatewayTimeout)
	defer cancel()

	intent, err := c.gateway.ConfirmIntent(gctx, order.Payment.IntentID, paymentMethodID)
	if err != nil {
		return nil, err
	}

	appendAttempt(order, order.Total, intent.Status, "confirm_intent")
	if err := c.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	return &ConfirmResult{
		Status:         intent.Status,
		RequiresAction: intent.Status == "requires_action",
	}, nil
}

// Retry opens a fresh intent for a failed or cancelled payment. The stale
// intent id is replaced, never reused.
func (c *Coordinator) Retry(ctx context.Context, user *models.User, orderID primitive.ObjectID) (*CreateIntentResult, error) {
	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.Id {
		return nil, ErrForbidden
	}
	if order.Payment.Status != models.PaymentStatusFailed && order.Payment.Status != models.PaymentStatusCancelled {
		return nil, fmt.Errorf("%w: retry requires a failed or cancelled payment, got %s", ErrInvalidState, order.Payment.Status)
	}

	return c.openIntent(ctx, user, order, "retry_intent")
}

// Refund refunds part or all of a completed payment. The cumulative
// refunded amount can never exceed the order total.
func (c *Coordinator) Refund(ctx context.Context, orderID primitive.ObjectID, amount float64, reason string) (*models.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrValidation)
	}

	order, err := c.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.Status != models.PaymentStatusCompleted && order.Payment.Status != models.PaymentStatusPartiallyRefunded {
		return nil, fmt.Errorf("%w: refund requires a completed payment, got %s", ErrInvalidState, order.Payment.Status)
	}

	remaining := round2(order.Total - order.Payment.AmountRefunded)
	if amount > remaining {
		return nil, fmt.Errorf("%w: %.2f requested, %.2f refundable", ErrRefundExceedsTotal, amount, remaining)
	}

	gctx, cancel := context.WithTimeout(ctx, c.gatewayTimeout)
	defer cancel()

	refundID, err := c.gateway.Refund(gctx, order.Payment.IntentID, toCents(amount))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order.Payment.Refunds = append(order.Payment.Refunds, models.RefundRecord{
		RefundID: refundID,
		Amount:   amount,
		Reason:   reason,
		At:       now,
	})
	order.Payment.AmountRefunded = round2(order.Payment.AmountRefunded + amount)
	if order.Payment.AmountRefunded >= order.Total {
		order.Payment.Status = models.PaymentStatusRefunded
		order.SetStatus(models.OrderStatusRefunded, "fully refunded")
	} else {
		order.Payment.Status = models.PaymentStatusPartiallyRefunded
		order.UpdatedAt = now
	}

	if err := c.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	c.events.Publish(notifications.Event{
		Type:   notifications.EventOrderRefunded,
		UserID: order.UserID,
		Data: map[string]interface{}{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"amount":      amount,
		},
	})
	return order, nil
}

// HandleWebhook verifies a raw webhook delivery and applies it. An
// unverifiable payload is rejected before anything is mutated.
func (c *Coordinator) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := c.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		c.log.WithError(err).Warn("rejected webhook delivery")
		return err
	}
	return c.HandleEvent(ctx, ev)
}

// HandleEvent applies a verified webhook event. The gateway may redeliver
// events, so every branch is idempotent: re-applying a terminal state is
// a no-op with no duplicate notifications. Events without a matching
// order or with an unmodeled kind are acknowledged and ignored.
func (c *Coordinator) HandleEvent(ctx context.Context, ev *Event) error {
	if ev.Kind == EventUnknown {
		return nil
	}

	order, err := c.orders.FindByIntentID(ctx, ev.IntentID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		// Acknowledge events for orders we do not know; the gateway must
		// not be left retrying them forever.
		c.log.WithField("intentId", ev.IntentID).Warn("webhook event for unknown order")
		return nil
	}
	if err != nil {
		// A store outage is not an unknown order: surface it so the
		// delivery fails and the gateway redelivers later.
		return fmt.Errorf("load order for intent %s: %w", ev.IntentID, err)
	}

	metrics.PaymentEvents.WithLabelValues(string(ev.Kind)).Inc()

	switch ev.Kind {
	case EventPaymentSucceeded:
		return c.applySucceeded(ctx, order, ev)
	case EventPaymentFailed:
		return c.applyFailed(ctx, order, ev)
	case EventPaymentCanceled:
		return c.applyCanceled(ctx, order)
	case EventPaymentRequiresAction:
		// No status change; the customer just needs to act.
		c.events.Publish(notifications.Event{
			Type:   notifications.EventPaymentActionRequired,
			UserID: order.UserID,
			Data:   c.orderData(order),
		})
		return nil
	case EventChargeRefunded:
		return c.applyRefunded(ctx, order, ev)
	case EventDisputeCreated:
		// No customer-facing mutation; staff handle disputes manually.
		data := c.orderData(order)
		data["amount"] = ev.Amount
		data["reason"] = ev.DisputeReason
		c.events.Publish(notifications.Event{
			Type:      notifications.EventDisputeCreated,
			Broadcast: true,
			Data:      data,
		})
		return nil
	}
	return nil
}

func (c *Coordinator) applySucceeded(ctx context.Context, order *models.Order, ev *Event) error {
	if order.Payment.Status == models.PaymentStatusCompleted {
		return nil
	}

	order.Payment.Status = models.PaymentStatusCompleted
	order.Payment.FailureCode = ""
	order.Payment.FailureMessage = ""
	appendAttempt(order, ev.Amount, "succeeded", "webhook")
	order.SetStatus(models.OrderStatusConfirmed, "payment completed")

	if err := c.orders.Update(ctx, order); err != nil {
		return err
	}

	c.events.Publish(notifications.Event{
		Type:   notifications.EventPaymentSucceeded,
		UserID: order.UserID,
		Data:   c.orderData(order),
	})
	c.events.Publish(notifications.Event{
		Type:      notifications.EventOrderPaid,
		Broadcast: true,
		Data:      c.orderData(order),
	})
	return nil
}

func (c *Coordinator) applyFailed(ctx context.Context, order *models.Order, ev *Event) error {
	if order.Payment.Status == models.PaymentStatusFailed {
		return nil
	}

	order.Payment.Status = models.PaymentStatusFailed
	order.Payment.FailureCode = ev.FailureCode
	order.Payment.FailureMessage = ev.FailureMessage
	appendAttempt(order, ev.Amount, "failed", "webhook")
	order.UpdatedAt = time.Now().UTC()

	if err := c.orders.Update(ctx, order); err != nil {
		return err
	}

	data := c.orderData(order)
	data["reason"] = ev.FailureMessage
	data["retryable"] = true
	c.events.Publish(notifications.Event{
		Type:   notifications.EventPaymentFailed,
		UserID: order.UserID,
		Data:   data,
	})
	c.events.Publish(notifications.Event{
		Type:      notifications.EventPaymentFailed,
		Broadcast: true,
		Data:      data,
	})
	return nil
}

func (c *Coordinator) applyCanceled(ctx context.Context, order *models.Order) error {
	if order.Payment.Status == models.PaymentStatusCancelled {
		return nil
	}

	order.Payment.Status = models.PaymentStatusCancelled
	order.UpdatedAt = time.Now().UTC()
	if err := c.orders.Update(ctx, order); err != nil {
		return err
	}

	c.events.Publish(notifications.Event{
		Type:   notifications.EventPaymentCanceled,
		UserID: order.UserID,
		Data:   c.orderData(order),
	})
	return nil
}

func (c *Coordinator) applyRefunded(ctx context.Context, order *models.Order, ev *Event) error {
	target := models.PaymentStatusPartiallyRefunded
	if ev.FullyRefunded {
		target = models.PaymentStatusRefunded
	}
	if order.Payment.Status == target && order.Payment.AmountRefunded >= ev.AmountRefunded {
		return nil
	}

	order.Payment.Status = target
	order.Payment.AmountRefunded = ev.AmountRefunded
	if ev.FullyRefunded {
		order.SetStatus(models.OrderStatusRefunded, "fully refunded")
	} else {
		order.UpdatedAt = time.Now().UTC()
	}

	if err := c.orders.Update(ctx, order); err != nil {
		return err
	}

	data := c.orderData(order)
	data["amount"] = ev.AmountRefunded
	c.events.Publish(notifications.Event{
		Type:   notifications.EventOrderRefunded,
		UserID: order.UserID,
		Data:   data,
	})
	return nil
}

func (c *Coordinator) orderData(order *models.Order) map[string]interface{} {
	return map[string]interface{}{
		"orderId":     order.ID.Hex(),
		"orderNumber": order.OrderNumber,
		"total":       order.Total,
	}
}

func appendAttempt(order *models.Order, amount float64, status, action string) {
	order.Payment.Attempts = append(order.Payment.Attempts, models.PaymentAttempt{
		At:     time.Now().UTC(),
		Amount: amount,
		Status: status,
		Action: action,
	})
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
