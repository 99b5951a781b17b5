package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/notifications"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/orders"
)

type memOrders struct {
	byID map[primitive.ObjectID]*models.Order
	// findErr makes every lookup fail, simulating a store outage.
	findErr error
}

func newMemOrders(orderList ...*models.Order) *memOrders {
	m := &memOrders{byID: make(map[primitive.ObjectID]*models.Order)}
	for _, o := range orderList {
		m.byID[o.ID] = o
	}
	return m
}

func (m *memOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, orders.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) FindByIntentID(_ context.Context, intentID string) (*models.Order, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, o := range m.byID {
		if o.Payment.IntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (m *memOrders) Update(_ context.Context, order *models.Order) error {
	if _, ok := m.byID[order.ID]; !ok {
		return orders.ErrOrderNotFound
	}
	cp := *order
	m.byID[order.ID] = &cp
	return nil
}

type memUsers struct {
	customerIDs map[primitive.ObjectID][]string
}

func newMemUsers() *memUsers {
	return &memUsers{customerIDs: make(map[primitive.ObjectID][]string)}
}

func (m *memUsers) SetGatewayCustomerID(_ context.Context, userID primitive.ObjectID, customerID string) error {
	m.customerIDs[userID] = append(m.customerIDs[userID], customerID)
	return nil
}

type stubGateway struct {
	customers     int
	intents       int
	confirmStatus string
	refundIDs     []string
	verifyEvent   *Event
	verifyErr     error
}

func (g *stubGateway) CreateCustomer(context.Context, *models.User) (string, error) {
	g.customers++
	return "cus_test_1", nil
}

func (g *stubGateway) CreateIntent(context.Context, int64, string, string, map[string]string) (*Intent, error) {
	g.intents++
	return &Intent{ID: fmt.Sprintf("pi_test_%d", g.intents), ClientSecret: "secret", Status: "requires_payment_method"}, nil
}

func (g *stubGateway) ConfirmIntent(_ context.Context, intentID, _ string) (*Intent, error) {
	status := g.confirmStatus
	if status == "" {
		status = "succeeded"
	}
	return &Intent{ID: intentID, Status: status}, nil
}

func (g *stubGateway) Refund(context.Context, string, int64) (string, error) {
	id := fmt.Sprintf("re_test_%d", len(g.refundIDs)+1)
	g.refundIDs = append(g.refundIDs, id)
	return id, nil
}

func (g *stubGateway) VerifyWebhook([]byte, string) (*Event, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyEvent, nil
}

type capturedEvents struct {
	events []notifications.Event
}

func (c *capturedEvents) Publish(ev notifications.Event) {
	c.events = append(c.events, ev)
}

func (c *capturedEvents) ofType(t notifications.EventType) []notifications.Event {
	var out []notifications.Event
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func pendingOrder(user *models.User) *models.Order {
	order := &models.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: "ORD-20260823-ABCD1234",
		UserID:      user.Id,
		Total:       107.99,
		Payment: models.PaymentInfo{
			Method: "card",
			Status: models.PaymentStatusPending,
		},
	}
	order.SetStatus(models.OrderStatusPending, "order placed")
	return order
}

type env struct {
	coordinator *Coordinator
	orders      *memOrders
	users       *memUsers
	gateway     *stubGateway
	events      *capturedEvents
	user        *models.User
	order       *models.Order
}

func newEnv() *env {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	user := &models.User{Id: primitive.NewObjectID(), Name: "Dana", Email: "dana@example.com"}
	order := pendingOrder(user)

	e := &env{
		orders:  newMemOrders(order),
		users:   newMemUsers(),
		gateway: &stubGateway{},
		events:  &capturedEvents{},
		user:    user,
		order:   order,
	}
	e.coordinator = NewCoordinator(e.orders, e.users, e.gateway, e.events, log)
	return e
}

func (e *env) stored(t *testing.T) *models.Order {
	t.Helper()
	order, err := e.orders.FindByID(context.Background(), e.order.ID)
	require.NoError(t, err)
	return order
}

func TestCreateIntentPersistsCustomerAndIntent(t *testing.T) {
	e := newEnv()

	result, err := e.coordinator.CreateIntent(context.Background(), e.user, e.order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.IntentID)
	assert.Equal(t, "secret", result.ClientSecret)

	stored := e.stored(t)
	assert.Equal(t, result.IntentID, stored.Payment.IntentID)
	assert.Equal(t, models.PaymentStatusPending, stored.Payment.Status)
	require.Len(t, stored.Payment.Attempts, 1)
	assert.Equal(t, "create_intent", stored.Payment.Attempts[0].Action)

	assert.Equal(t, 1, e.gateway.customers)
	assert.Equal(t, []string{"cus_test_1"}, e.users.customerIDs[e.user.Id])
}

func TestCreateIntentReusesGatewayCustomer(t *testing.T) {
	e := newEnv()
	e.user.GatewayCustomerID = "cus_existing"

	_, err := e.coordinator.CreateIntent(context.Background(), e.user, e.order.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.gateway.customers)
	assert.Empty(t, e.users.customerIDs[e.user.Id])
}

func TestCreateIntentRejectsNonPendingPayment(t *testing.T) {
	e := newEnv()
	e.order.Payment.Status = models.PaymentStatusCompleted

	_, err := e.coordinator.CreateIntent(context.Background(), e.user, e.order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCreateIntentRejectsForeignOrder(t *testing.T) {
	e := newEnv()
	stranger := &models.User{Id: primitive.NewObjectID()}

	_, err := e.coordinator.CreateIntent(context.Background(), stranger, e.order.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConfirmSurfacesRequiresAction(t *testing.T) {
	e := newEnv()
	e.gateway.confirmStatus = "requires_action"
	_, err := e.coordinator.CreateIntent(context.Background(), e.user, e.order.ID)
	require.NoError(t, err)

	result, err := e.coordinator.Confirm(context.Background(), e.user, e.order.ID, "pm_card")
	require.NoError(t, err)
	assert.True(t, result.RequiresAction)
	assert.Equal(t, "requires_action", result.Status)
}

func TestConfirmWithoutIntentRejected(t *testing.T) {
	e := newEnv()

	_, err := e.coordinator.Confirm(context.Background(), e.user, e.order.ID, "pm_card")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestWebhookSucceededConfirmsOrder(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"

	err := e.coordinator.HandleEvent(context.Background(), &Event{
		ID:       "evt_1",
		Kind:     EventPaymentSucceeded,
		IntentID: "pi_1",
		Amount:   e.order.Total,
	})
	require.NoError(t, err)

	stored := e.stored(t)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Payment.Status)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)

	assert.Len(t, e.events.ofType(notifications.EventPaymentSucceeded), 1)
	broadcasts := e.events.ofType(notifications.EventOrderPaid)
	require.Len(t, broadcasts, 1)
	assert.True(t, broadcasts[0].Broadcast)
}

func TestWebhookSucceededRedeliveryIsNoOp(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"

	ev := &Event{ID: "evt_1", Kind: EventPaymentSucceeded, IntentID: "pi_1", Amount: e.order.Total}
	require.NoError(t, e.coordinator.HandleEvent(context.Background(), ev))
	firstAttempts := len(e.stored(t).Payment.Attempts)
	firstEvents := len(e.events.events)

	require.NoError(t, e.coordinator.HandleEvent(context.Background(), ev))

	stored := e.stored(t)
	assert.Equal(t, models.PaymentStatusCompleted, stored.Payment.Status)
	assert.Len(t, stored.Payment.Attempts, firstAttempts)
	assert.Len(t, e.events.events, firstEvents)
}

func TestWebhookFailedMarksRetryable(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"

	err := e.coordinator.HandleEvent(context.Background(), &Event{
		Kind:           EventPaymentFailed,
		IntentID:       "pi_1",
		FailureCode:    "card_declined",
		FailureMessage: "Your card was declined.",
	})
	require.NoError(t, err)

	stored := e.stored(t)
	assert.Equal(t, models.PaymentStatusFailed, stored.Payment.Status)
	assert.Equal(t, "card_declined", stored.Payment.FailureCode)
	// Order itself stays pending; the customer may retry.
	assert.Equal(t, models.OrderStatusPending, stored.Status)

	failed := e.events.ofType(notifications.EventPaymentFailed)
	require.Len(t, failed, 2)
	assert.Equal(t, true, failed[0].Data["retryable"])
}

func TestWebhookCanceled(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"

	err := e.coordinator.HandleEvent(context.Background(), &Event{Kind: EventPaymentCanceled, IntentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, e.stored(t).Payment.Status)
}

func TestWebhookUnknownOrderAcknowledged(t *testing.T) {
	e := newEnv()

	err := e.coordinator.HandleEvent(context.Background(), &Event{Kind: EventPaymentSucceeded, IntentID: "pi_missing"})
	assert.NoError(t, err)
	assert.Empty(t, e.events.events)
}

func TestWebhookStoreOutageSurfacesError(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"
	e.orders.findErr = errors.New("connection reset by peer")

	err := e.coordinator.HandleEvent(context.Background(), &Event{Kind: EventPaymentSucceeded, IntentID: "pi_1"})
	// An outage must fail the delivery so the gateway retries; only a
	// genuinely unknown order is acknowledged.
	require.Error(t, err)
	assert.ErrorIs(t, err, e.orders.findErr)
	assert.Empty(t, e.events.events)
}

func TestWebhookUnknownKindIgnored(t *testing.T) {
	e := newEnv()

	err := e.coordinator.HandleEvent(context.Background(), &Event{Kind: EventUnknown, IntentID: "pi_1"})
	assert.NoError(t, err)
	assert.Empty(t, e.events.events)
}

func TestWebhookDisputeBroadcastsOnly(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"

	err := e.coordinator.HandleEvent(context.Background(), &Event{
		Kind:          EventDisputeCreated,
		IntentID:      "pi_1",
		Amount:        e.order.Total,
		DisputeReason: "fraudulent",
	})
	require.NoError(t, err)

	disputes := e.events.ofType(notifications.EventDisputeCreated)
	require.Len(t, disputes, 1)
	assert.True(t, disputes[0].Broadcast)
	// No customer mutation on dispute.
	assert.Equal(t, models.PaymentStatusPending, e.stored(t).Payment.Status)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"
	e.gateway.verifyErr = ErrInvalidSignature

	err := e.coordinator.HandleWebhook(context.Background(), []byte("{}"), "bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, models.PaymentStatusPending, e.stored(t).Payment.Status)
	assert.Empty(t, e.events.events)
}

func TestHandleWebhookAppliesVerifiedEvent(t *testing.T) {
	e := newEnv()
	e.order.Payment.IntentID = "pi_1"
	e.gateway.verifyEvent = &Event{Kind: EventPaymentSucceeded, IntentID: "pi_1", Amount: e.order.Total}

	err := e.coordinator.HandleWebhook(context.Background(), []byte("{}"), "good")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, e.stored(t).Payment.Status)
}

func completedOrder(e *env) {
	e.order.Payment.Status = models.PaymentStatusCompleted
	e.order.Payment.IntentID = "pi_1"
	e.order.SetStatus(models.OrderStatusConfirmed, "payment completed")
}

func TestRefundPartialThenFull(t *testing.T) {
	e := newEnv()
	completedOrder(e)

	order, err := e.coordinator.Refund(context.Background(), e.order.ID, 50, "damaged box")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartiallyRefunded, order.Payment.Status)
	assert.Equal(t, 50.0, order.Payment.AmountRefunded)
	require.Len(t, order.Payment.Refunds, 1)
	assert.Equal(t, "damaged box", order.Payment.Refunds[0].Reason)

	order, err = e.coordinator.Refund(context.Background(), e.order.ID, 57.99, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, order.Payment.Status)
	assert.Equal(t, models.OrderStatusRefunded, order.Status)

	assert.Len(t, e.events.ofType(notifications.EventOrderRefunded), 2)
}

func TestRefundExceedingRemainderRejected(t *testing.T) {
	e := newEnv()
	completedOrder(e)

	_, err := e.coordinator.Refund(context.Background(), e.order.ID, 200, "")
	assert.ErrorIs(t, err, ErrRefundExceedsTotal)
	assert.Empty(t, e.gateway.refundIDs)
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	e := newEnv()

	_, err := e.coordinator.Refund(context.Background(), e.order.ID, 10, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRetryOpensFreshIntent(t *testing.T) {
	e := newEnv()
	e.order.Payment.Status = models.PaymentStatusFailed
	e.order.Payment.IntentID = "pi_stale"

	result, err := e.coordinator.Retry(context.Background(), e.user, e.order.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pi_stale", result.IntentID)

	stored := e.stored(t)
	assert.Equal(t, result.IntentID, stored.Payment.IntentID)
	assert.Equal(t, models.PaymentStatusPending, stored.Payment.Status)
	assert.Empty(t, stored.Payment.FailureCode)
}

func TestRetryRequiresFailedOrCancelled(t *testing.T) {
	e := newEnv()

	_, err := e.coordinator.Retry(context.Background(), e.user, e.order.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}
