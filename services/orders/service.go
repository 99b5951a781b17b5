// Package orders builds and manages the order aggregate: item resolution,
// server-side pricing, stock reservation and the compensating release
// when persistence fails after stock was already taken.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/metrics"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/inventory"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/notifications"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrVariantUnavailable = errors.New("variant unavailable")
	ErrOrderNotFound      = errors.New("order not found")
	ErrForbidden          = errors.New("order belongs to another user")
	ErrNotCancellable     = errors.New("order can no longer be cancelled")
	ErrStatusConflict     = errors.New("order status changed concurrently")
)

// Catalog resolves the authoritative product/variant for a line item.
type Catalog interface {
	FindVariant(ctx context.Context, productID primitive.ObjectID, size, color string) (*models.Product, *models.Variant, error)
}

// Reserver is the stock reservation contract from the inventory service.
type Reserver interface {
	Reserve(ctx context.Context, lines []inventory.Line) ([]inventory.Line, error)
	Release(ctx context.Context, lines []inventory.Line) error
}

type Store interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	// UpdateFromStatus persists the order only if its stored status is
	// still prev, returning ErrStatusConflict otherwise.
	UpdateFromStatus(ctx context.Context, order *models.Order, prev models.OrderStatus) error
}

// CartSource loads and clears a user's persisted cart.
type CartSource interface {
	Load(ctx context.Context, userID primitive.ObjectID) ([]models.CartItem, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInput struct {
	Items           []ItemInput            `json:"items"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	ShippingMethod  string                 `json:"shippingMethod"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type Service struct {
	catalog  Catalog
	store    Store
	cart     CartSource
	reserver Reserver
	events   notifications.Publisher
	pricing  Pricing
	log      *logrus.Logger
}

func NewService(catalog Catalog, store Store, cart CartSource, reserver Reserver, events notifications.Publisher, pricing Pricing, log *logrus.Logger) *Service {
	return &Service{
		catalog:  catalog,
		store:    store,
		cart:     cart,
		reserver: reserver,
		events:   events,
		pricing:  pricing,
		log:      log,
	}
}

// Checkout creates a fully priced order. The ordering is the correctness
// property of this flow: price first, then reserve stock, then persist;
// if persistence fails the reservation is released before the error
// surfaces, and no partial order is ever stored.
func (s *Service) Checkout(ctx context.Context, user *models.User, in CheckoutInput) (*models.Order, error) {
	items, fromCart, err := s.sourceItems(ctx, user, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:              primitive.NewObjectID(),
		OrderNumber:     newOrderNumber(),
		UserID:          user.Id,
		ShippingAddress: in.ShippingAddress,
		ShippingMethod:  in.ShippingMethod,
		Payment: models.PaymentInfo{
			Method: in.PaymentMethod,
			Status: models.PaymentStatusPending,
		},
		CreatedAt: time.Now().UTC(),
	}

	lines := make([]inventory.Line, 0, len(items))
	for _, it := range items {
		snapshot, line, err := s.resolveItem(ctx, it)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *snapshot)
		lines = append(lines, line)
	}

	if err := s.pricing.Quote(order); err != nil {
		return nil, err
	}

	reserved, err := s.reserver.Reserve(ctx, lines)
	if err != nil {
		return nil, err
	}

	order.SetStatus(models.OrderStatusPending, "order placed")
	if err := s.store.Insert(ctx, order); err != nil {
		// Stock was already taken; give it back before surfacing the error.
		if relErr := s.reserver.Release(ctx, reserved); relErr != nil {
			s.log.WithError(relErr).WithField("orderNumber", order.OrderNumber).
				Error("failed to release reservation after persist failure")
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if fromCart {
		if err := s.cart.Clear(ctx, user.Id); err != nil {
			s.log.WithError(err).WithField("userId", user.Id.Hex()).Warn("failed to clear cart after checkout")
		}
	}

	metrics.OrdersCreated.Inc()
	s.events.Publish(notifications.Event{
		Type:   notifications.EventOrderCreated,
		UserID: user.Id,
		Data: map[string]interface{}{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"total":       order.Total,
		},
	})

	return order, nil
}

// sourceItems uses the explicit request items when present, otherwise the
// user's persisted cart.
func (s *Service) sourceItems(ctx context.Context, user *models.User, explicit []ItemInput) ([]ItemInput, bool, error) {
	if len(explicit) > 0 {
		return explicit, false, nil
	}

	cartItems, err := s.cart.Load(ctx, user.Id)
	if err != nil {
		return nil, false, err
	}
	if len(cartItems) == 0 {
		return nil, false, ErrEmptyOrder
	}

	items := make([]ItemInput, 0, len(cartItems))
	for _, ci := range cartItems {
		items = append(items, ItemInput{
			ProductID: ci.ProductID.Hex(),
			Size:      ci.Size,
			Color:     ci.Color,
			Quantity:  ci.Quantity,
		})
	}
	return items, true, nil
}

// resolveItem re-reads the catalog and builds the immutable snapshot. The
// unit price always comes from the variant, never from the client. The
// stock check here is only a pre-check; the reservation repeats it
// atomically.
func (s *Service) resolveItem(ctx context.Context, it ItemInput) (*models.OrderItem, inventory.Line, error) {
	if it.Quantity <= 0 {
		return nil, inventory.Line{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	productID, err := primitive.ObjectIDFromHex(it.ProductID)
	if err != nil {
		return nil, inventory.Line{}, fmt.Errorf("%w: invalid product id", ErrValidation)
	}

	product, variant, err := s.catalog.FindVariant(ctx, productID, it.Size, it.Color)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrProductNotFound):
			return nil, inventory.Line{}, fmt.Errorf("%w: %s", ErrProductUnavailable, it.ProductID)
		case errors.Is(err, inventory.ErrVariantNotFound):
			return nil, inventory.Line{}, fmt.Errorf("%w: %s %s/%s", ErrVariantUnavailable, it.ProductID, it.Size, it.Color)
		}
		return nil, inventory.Line{}, err
	}
	if !product.IsActive || !variant.IsActive {
		return nil, inventory.Line{}, fmt.Errorf("%w: %s", ErrVariantUnavailable, variant.SKU)
	}
	if variant.Stock < it.Quantity {
		return nil, inventory.Line{}, &inventory.InsufficientStockError{
			SKU: variant.SKU, Requested: it.Quantity, Available: variant.Stock,
		}
	}

	snapshot := &models.OrderItem{
		ProductID: product.ID,
		Name:      product.Name,
		Brand:     product.Brand,
		Image:     product.MainImage(),
		Size:      variant.Size,
		Color:     variant.Color,
		SKU:       variant.SKU,
		Quantity:  it.Quantity,
		UnitPrice: variant.Price,
		LineTotal: round2(variant.Price * float64(it.Quantity)),
	}
	line := inventory.Line{ProductID: product.ID, Size: variant.Size, Color: variant.Color, Quantity: it.Quantity}
	return snapshot, line, nil
}

// Cancel releases the reserved stock and marks the order cancelled.
// Cancellation is a status change, never a deletion. Paid orders must be
// refunded through the payment coordinator before they can be cancelled.
func (s *Service) Cancel(ctx context.Context, orderID, userID primitive.ObjectID, isAdmin bool) (*models.Order, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrForbidden
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusConfirmed {
		return nil, fmt.Errorf("%w: status %s", ErrNotCancellable, order.Status)
	}
	if order.Payment.Status == models.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: refund the payment first", ErrNotCancellable)
	}

	prev := order.Status
	order.SetStatus(models.OrderStatusCancelled, "cancelled")
	if order.Payment.Status == models.PaymentStatusPending {
		order.Payment.Status = models.PaymentStatusCancelled
	}
	// The flip is conditional on the status we read, so two racing
	// cancels cannot both win and release the stock twice.
	if err := s.store.UpdateFromStatus(ctx, order, prev); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("%w: order changed concurrently", ErrNotCancellable)
		}
		return nil, err
	}

	lines := make([]inventory.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, inventory.Line{
			ProductID: item.ProductID,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
		})
	}
	if err := s.reserver.Release(ctx, lines); err != nil {
		// The order is already cancelled; a failed release understates
		// stock and needs a manual correction, not an un-cancel.
		s.log.WithError(err).WithField("orderNumber", order.OrderNumber).
			Error("failed to release stock for cancelled order")
	}

	metrics.OrdersCancelled.Inc()
	s.events.Publish(notifications.Event{
		Type:   notifications.EventOrderCancelled,
		UserID: order.UserID,
		Data: map[string]interface{}{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
		},
	})
	return order, nil
}

// validStatusTargets are the transitions staff may apply by hand.
var validStatusTargets = map[models.OrderStatus]bool{
	models.OrderStatusConfirmed:  true,
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
	models.OrderStatusReturned:   true,
}

// UpdateStatus applies a staff status transition and notifies the owner.
func (s *Service) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status models.OrderStatus, note string) (*models.Order, error) {
	if !validStatusTargets[status] {
		return nil, fmt.Errorf("%w: cannot set status %q directly", ErrValidation, status)
	}

	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.SetStatus(status, note)
	if err := s.store.Update(ctx, order); err != nil {
		return nil, err
	}

	s.events.Publish(notifications.Event{
		Type:   notifications.EventOrderStatusUpdated,
		UserID: order.UserID,
		Data: map[string]interface{}{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"status":      string(status),
		},
	})
	return order, nil
}

// newOrderNumber produces the human-readable identifier shown to
// customers and support staff.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
