package orders

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/inventory"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/notifications"
)

type fakeCatalog struct {
	products map[primitive.ObjectID]*models.Product
}

func (f *fakeCatalog) FindVariant(_ context.Context, productID primitive.ObjectID, size, color string) (*models.Product, *models.Variant, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, nil, inventory.ErrProductNotFound
	}
	variant := product.FindVariant(size, color)
	if variant == nil {
		return nil, nil, inventory.ErrVariantNotFound
	}
	return product, variant, nil
}

type fakeReserver struct {
	mu         sync.Mutex
	reserveErr error
	reserved   [][]inventory.Line
	released   [][]inventory.Line
}

func (f *fakeReserver) Reserve(_ context.Context, lines []inventory.Line) ([]inventory.Line, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	f.reserved = append(f.reserved, lines)
	return lines, nil
}

func (f *fakeReserver) Release(_ context.Context, lines []inventory.Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, lines)
	return nil
}

type fakeStore struct {
	mu        sync.Mutex
	insertErr error
	orders    map[primitive.ObjectID]*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (f *fakeStore) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (f *fakeStore) Update(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[order.ID]; !ok {
		return ErrOrderNotFound
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateFromStatus(_ context.Context, order *models.Order, prev models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.orders[order.ID]
	if !ok {
		return ErrOrderNotFound
	}
	if stored.Status != prev {
		return ErrStatusConflict
	}
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

type fakeCart struct {
	items   []models.CartItem
	cleared bool
}

func (f *fakeCart) Load(context.Context, primitive.ObjectID) ([]models.CartItem, error) {
	return f.items, nil
}

func (f *fakeCart) Clear(context.Context, primitive.ObjectID) error {
	f.cleared = true
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (f *fakePublisher) Publish(ev notifications.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

type fixture struct {
	svc      *Service
	catalog  *fakeCatalog
	store    *fakeStore
	cart     *fakeCart
	reserver *fakeReserver
	events   *fakePublisher
	product  *models.Product
	user     *models.User
}

func newFixture() *fixture {
	product := &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Air Runner",
		Brand:    "Stride",
		Images:   []string{"https://cdn.example.com/air-runner.jpg"},
		IsActive: true,
		Variants: []models.Variant{
			{Size: "42", Color: "black", SKU: "AR-42-BLK", Price: 89.99, Stock: 10, IsActive: true},
		},
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	f := &fixture{
		catalog:  &fakeCatalog{products: map[primitive.ObjectID]*models.Product{product.ID: product}},
		store:    newFakeStore(),
		cart:     &fakeCart{},
		reserver: &fakeReserver{},
		events:   &fakePublisher{},
		product:  product,
		user:     &models.User{Id: primitive.NewObjectID(), Name: "Dana", Email: "dana@example.com"},
	}
	f.svc = NewService(f.catalog, f.store, f.cart, f.reserver, f.events, DefaultPricing(), log)
	return f
}

func checkoutInput(f *fixture, qty int) CheckoutInput {
	return CheckoutInput{
		Items: []ItemInput{
			{ProductID: f.product.ID.Hex(), Size: "42", Color: "black", Quantity: qty},
		},
		ShippingAddress: models.ShippingAddress{FullName: "Dana", StreetAddress: "1 Main St", City: "Springfield"},
		ShippingMethod:  ShippingStandard,
		PaymentMethod:   "card",
	}
}

func TestCheckoutCreatesPricedOrder(t *testing.T) {
	f := newFixture()

	order, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 2))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.Payment.Status)
	assert.Equal(t, f.user.Id, order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "AR-42-BLK", order.Items[0].SKU)
	assert.Equal(t, 89.99, order.Items[0].UnitPrice)
	assert.Equal(t, 179.98, order.Subtotal)
	// Subtotal over 150 waives standard shipping.
	assert.Equal(t, 0.0, order.ShippingCost)
	assert.Equal(t, 194.38, order.Total)

	assert.Len(t, f.reserver.reserved, 1)
	assert.Contains(t, f.store.orders, order.ID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, notifications.EventOrderCreated, f.events.events[0].Type)
	assert.Equal(t, f.user.Id, f.events.events[0].UserID)
}

func TestCheckoutOrderNumberFormat(t *testing.T) {
	f := newFixture()

	order, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 1))
	require.NoError(t, err)

	parts := strings.Split(order.OrderNumber, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "ORD", parts[0])
	assert.Len(t, parts[1], 8)
	assert.Len(t, parts[2], 8)
}

func TestCheckoutIgnoresClientPrice(t *testing.T) {
	f := newFixture()
	f.product.Variants[0].Price = 120

	order, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 1))
	require.NoError(t, err)
	assert.Equal(t, 120.0, order.Items[0].UnitPrice)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 11))
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.events.events)
}

func TestCheckoutReservationFailureCreatesNothing(t *testing.T) {
	f := newFixture()
	f.reserver.reserveErr = &inventory.InsufficientStockError{SKU: "AR-42-BLK", Requested: 2, Available: 1}

	_, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 2))
	require.Error(t, err)
	assert.Empty(t, f.store.orders)
	assert.Empty(t, f.events.events)
}

func TestCheckoutReleasesStockWhenPersistFails(t *testing.T) {
	f := newFixture()
	f.store.insertErr = errors.New("write concern timeout")

	_, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 2))
	require.Error(t, err)

	require.Len(t, f.reserver.released, 1)
	assert.Equal(t, f.reserver.reserved[0], f.reserver.released[0])
	assert.Empty(t, f.events.events)
}

func TestCheckoutFromCart(t *testing.T) {
	f := newFixture()
	f.cart.items = []models.CartItem{
		{ProductID: f.product.ID, Size: "42", Color: "black", Quantity: 1},
	}

	in := checkoutInput(f, 0)
	in.Items = nil
	order, err := f.svc.Checkout(context.Background(), f.user, in)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.True(t, f.cart.cleared)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()

	in := checkoutInput(f, 0)
	in.Items = nil
	_, err := f.svc.Checkout(context.Background(), f.user, in)
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestCheckoutExplicitItemsDoNotClearCart(t *testing.T) {
	f := newFixture()
	f.cart.items = []models.CartItem{
		{ProductID: f.product.ID, Size: "42", Color: "black", Quantity: 1},
	}

	_, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 1))
	require.NoError(t, err)
	assert.False(t, f.cart.cleared)
}

func TestCheckoutUnknownProduct(t *testing.T) {
	f := newFixture()

	in := checkoutInput(f, 1)
	in.Items[0].ProductID = primitive.NewObjectID().Hex()
	_, err := f.svc.Checkout(context.Background(), f.user, in)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestCheckoutInactiveProduct(t *testing.T) {
	f := newFixture()
	f.product.IsActive = false

	_, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 1))
	assert.ErrorIs(t, err, ErrVariantUnavailable)
}

func TestCheckoutNonPositiveQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 0))
	assert.ErrorIs(t, err, ErrValidation)
}

func placedOrder(t *testing.T, f *fixture) *models.Order {
	t.Helper()
	order, err := f.svc.Checkout(context.Background(), f.user, checkoutInput(f, 2))
	require.NoError(t, err)
	f.events.events = nil
	return order
}

func TestCancelPendingOrderReleasesStock(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)

	cancelled, err := f.svc.Cancel(context.Background(), order.ID, f.user.Id, false)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentStatusCancelled, cancelled.Payment.Status)
	require.Len(t, f.reserver.released, 1)
	assert.Equal(t, 2, f.reserver.released[0][0].Quantity)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, notifications.EventOrderCancelled, f.events.events[0].Type)
}

func TestConcurrentCancelReleasesOnce(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Cancel(context.Background(), order.ID, f.user.Id, false)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrNotCancellable)
		}
	}

	// Exactly one cancel wins the status flip, so the stock comes back
	// exactly once.
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.reserver.released, 1)
}

func TestCancelForeignOrderForbidden(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)

	_, err := f.svc.Cancel(context.Background(), order.ID, primitive.NewObjectID(), false)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.reserver.released)
}

func TestAdminCancelsForeignOrder(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)

	_, err := f.svc.Cancel(context.Background(), order.ID, primitive.NewObjectID(), true)
	assert.NoError(t, err)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)
	order.SetStatus(models.OrderStatusShipped, "")
	require.NoError(t, f.store.Update(context.Background(), order))

	_, err := f.svc.Cancel(context.Background(), order.ID, f.user.Id, false)
	assert.ErrorIs(t, err, ErrNotCancellable)
	assert.Empty(t, f.reserver.released)
}

func TestCancelPaidOrderRequiresRefundFirst(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)
	order.Payment.Status = models.PaymentStatusCompleted
	order.SetStatus(models.OrderStatusConfirmed, "")
	require.NoError(t, f.store.Update(context.Background(), order))

	_, err := f.svc.Cancel(context.Background(), order.ID, f.user.Id, false)
	assert.ErrorIs(t, err, ErrNotCancellable)
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)

	updated, err := f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusShipped, "left warehouse")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusShipped, updated.Status)
	last := updated.StatusHistory[len(updated.StatusHistory)-1]
	assert.Equal(t, models.OrderStatusShipped, last.Status)
	assert.Equal(t, "left warehouse", last.Note)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, notifications.EventOrderStatusUpdated, f.events.events[0].Type)
}

func TestUpdateStatusRejectsDirectCancellation(t *testing.T) {
	f := newFixture()
	order := placedOrder(t, f)

	_, err := f.svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled, "")
	assert.ErrorIs(t, err, ErrValidation)
}
