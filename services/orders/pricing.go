package orders

import (
	"fmt"
	"math"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

// Shipping methods.
const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
)

// Pricing computes the stored order totals. All prices come from the
// catalog at checkout time; client-supplied prices are never consulted.
type Pricing struct {
	TaxRate float64
	// BaseRates is the flat rate per shipping method.
	BaseRates map[string]float64
	// BulkSurcharge is added per item beyond BulkThreshold units.
	BulkSurcharge float64
	BulkThreshold int
	// FreeShippingOver waives standard shipping above this subtotal.
	FreeShippingOver float64
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate: 0.08,
		BaseRates: map[string]float64{
			ShippingStandard:  5.99,
			ShippingExpress:   12.99,
			ShippingOvernight: 24.99,
		},
		BulkSurcharge:    1.50,
		BulkThreshold:    3,
		FreeShippingOver: 150,
	}
}

// Quote fills the pricing fields of the order from its line items and
// shipping method. Line totals must already be set from catalog prices.
func (p Pricing) Quote(order *models.Order) error {
	rate, ok := p.BaseRates[order.ShippingMethod]
	if !ok {
		return fmt.Errorf("%w: unknown shipping method %q", ErrValidation, order.ShippingMethod)
	}

	var subtotal float64
	var units int
	for _, item := range order.Items {
		subtotal += item.LineTotal
		units += item.Quantity
	}

	shipping := rate
	if units > p.BulkThreshold {
		shipping += float64(units-p.BulkThreshold) * p.BulkSurcharge
	}
	if order.ShippingMethod == ShippingStandard && subtotal >= p.FreeShippingOver {
		shipping = 0
	}

	order.Subtotal = round2(subtotal)
	order.Tax = round2(subtotal * p.TaxRate)
	order.ShippingCost = round2(shipping)
	order.Total = round2(order.Subtotal + order.Tax + order.ShippingCost - order.Discount)
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
