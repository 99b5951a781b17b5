// Package inventory implements stock reservation for checkout: in-order
// conditional decrements across variants with best-effort compensation
// when a later item fails.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/metrics"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrInactiveVariant = errors.New("variant is not available for sale")
	// ErrStockConflict is returned by the store when a conditional
	// decrement matched no document, i.e. stock changed underneath us.
	ErrStockConflict = errors.New("stock conflict")
)

// InsufficientStockError carries the quantity actually remaining so the
// client can adjust the cart without another round trip.
type InsufficientStockError struct {
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, %d available", e.SKU, e.Requested, e.Available)
}

// Line identifies one variant and quantity to reserve.
type Line struct {
	ProductID primitive.ObjectID
	Size      string
	Color     string
	Quantity  int
}

// CatalogStore is the storage contract the reserver runs against. When
// delta is negative, AdjustStock must be conditional on sufficient stock
// and atomic at the storage layer; it returns the resulting stock or
// ErrStockConflict when the condition did not hold.
type CatalogStore interface {
	FindVariant(ctx context.Context, productID primitive.ObjectID, size, color string) (*models.Product, *models.Variant, error)
	AdjustStock(ctx context.Context, productID primitive.ObjectID, size, color string, delta int) (int, error)
}

// LowStockFunc is invoked after a decrement leaves a variant at or below
// its low-stock threshold.
type LowStockFunc func(product *models.Product, variant models.Variant, remaining int)

type Reserver struct {
	store      CatalogStore
	onLowStock LowStockFunc
	log        *logrus.Logger
}

func NewReserver(store CatalogStore, log *logrus.Logger) *Reserver {
	return &Reserver{store: store, log: log}
}

// OnLowStock registers the low-stock signal hook.
func (r *Reserver) OnLowStock(fn LowStockFunc) {
	r.onLowStock = fn
}

// Reserve decrements stock for every line, in order, persisting each
// decrement immediately. If any line fails, every prior decrement in this
// call is reversed before the error is returned, so the caller observes
// all-or-nothing semantics.
//
// The compensation is best-effort, not transactional: a crash between a
// decrement and its rollback leaves stock understated until corrected by
// an inventory adjustment. This is an accepted limitation.
func (r *Reserver) Reserve(ctx context.Context, lines []Line) ([]Line, error) {
	reserved := make([]Line, 0, len(lines))

	fail := func(err error) ([]Line, error) {
		metrics.StockReservations.WithLabelValues("rejected").Inc()
		r.rollback(ctx, reserved)
		return nil, err
	}

	for _, ln := range lines {
		product, variant, err := r.store.FindVariant(ctx, ln.ProductID, ln.Size, ln.Color)
		if err != nil {
			return fail(err)
		}
		if !product.IsActive || !variant.IsActive {
			return fail(fmt.Errorf("%w: %s", ErrInactiveVariant, variant.SKU))
		}
		if variant.Stock < ln.Quantity {
			return fail(&InsufficientStockError{SKU: variant.SKU, Requested: ln.Quantity, Available: variant.Stock})
		}

		remaining, err := r.store.AdjustStock(ctx, ln.ProductID, ln.Size, ln.Color, -ln.Quantity)
		if errors.Is(err, ErrStockConflict) {
			// Lost a race: re-read so the error reports what is left now.
			available := 0
			if _, v, ferr := r.store.FindVariant(ctx, ln.ProductID, ln.Size, ln.Color); ferr == nil {
				available = v.Stock
			}
			return fail(&InsufficientStockError{SKU: variant.SKU, Requested: ln.Quantity, Available: available})
		}
		if err != nil {
			return fail(fmt.Errorf("adjust stock for %s: %w", variant.SKU, err))
		}

		reserved = append(reserved, ln)

		if r.onLowStock != nil && remaining <= variant.LowStockThreshold {
			r.onLowStock(product, *variant, remaining)
		}
	}

	metrics.StockReservations.WithLabelValues("reserved").Inc()
	return reserved, nil
}

// Release returns previously reserved quantities to stock. Callers must
// pass back exactly what Reserve handed them; the increments are applied
// unconditionally.
func (r *Reserver) Release(ctx context.Context, lines []Line) error {
	var firstErr error
	for _, ln := range lines {
		if _, err := r.store.AdjustStock(ctx, ln.ProductID, ln.Size, ln.Color, ln.Quantity); err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"productId": ln.ProductID.Hex(),
				"size":      ln.Size,
				"color":     ln.Color,
				"quantity":  ln.Quantity,
			}).Error("stock release failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	metrics.StockReservations.WithLabelValues("released").Inc()
	return firstErr
}

func (r *Reserver) rollback(ctx context.Context, reserved []Line) {
	if len(reserved) == 0 {
		return
	}
	if err := r.Release(ctx, reserved); err != nil {
		r.log.WithError(err).Error("reservation rollback incomplete, stock may be understated")
	}
}
