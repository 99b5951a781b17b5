package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

func orderWith(method string, items ...models.OrderItem) *models.Order {
	return &models.Order{Items: items, ShippingMethod: method}
}

func item(qty int, unitPrice float64) models.OrderItem {
	return models.OrderItem{Quantity: qty, UnitPrice: unitPrice, LineTotal: unitPrice * float64(qty)}
}

func TestQuoteStandardShipping(t *testing.T) {
	order := orderWith(ShippingStandard, item(1, 50))
	require.NoError(t, DefaultPricing().Quote(order))

	assert.Equal(t, 50.0, order.Subtotal)
	assert.Equal(t, 4.0, order.Tax)
	assert.Equal(t, 5.99, order.ShippingCost)
	assert.Equal(t, 59.99, order.Total)
}

func TestQuoteExpressAndOvernightRates(t *testing.T) {
	express := orderWith(ShippingExpress, item(1, 50))
	require.NoError(t, DefaultPricing().Quote(express))
	assert.Equal(t, 12.99, express.ShippingCost)

	overnight := orderWith(ShippingOvernight, item(1, 50))
	require.NoError(t, DefaultPricing().Quote(overnight))
	assert.Equal(t, 24.99, overnight.ShippingCost)
}

func TestQuoteBulkSurcharge(t *testing.T) {
	// 5 units, 2 beyond the threshold of 3.
	order := orderWith(ShippingExpress, item(5, 20))
	require.NoError(t, DefaultPricing().Quote(order))
	assert.Equal(t, 12.99+2*1.50, order.ShippingCost)
}

func TestQuoteFreeStandardShippingOverThreshold(t *testing.T) {
	order := orderWith(ShippingStandard, item(2, 80))
	require.NoError(t, DefaultPricing().Quote(order))
	assert.Equal(t, 0.0, order.ShippingCost)
	assert.Equal(t, 160.0, order.Subtotal)
}

func TestQuoteFreeShippingDoesNotApplyToExpress(t *testing.T) {
	order := orderWith(ShippingExpress, item(2, 80))
	require.NoError(t, DefaultPricing().Quote(order))
	assert.Equal(t, 12.99, order.ShippingCost)
}

func TestQuoteRoundsToCents(t *testing.T) {
	order := orderWith(ShippingStandard, item(3, 33.33))
	require.NoError(t, DefaultPricing().Quote(order))

	assert.Equal(t, 99.99, order.Subtotal)
	assert.Equal(t, 8.0, order.Tax)
	assert.Equal(t, 113.98, order.Total)
}

func TestQuoteAppliesDiscount(t *testing.T) {
	order := orderWith(ShippingStandard, item(1, 100))
	order.Discount = 10
	require.NoError(t, DefaultPricing().Quote(order))
	assert.Equal(t, 100.0+8.0+5.99-10.0, order.Total)
}

func TestQuoteUnknownShippingMethod(t *testing.T) {
	order := orderWith("drone", item(1, 50))
	err := DefaultPricing().Quote(order)
	assert.ErrorIs(t, err, ErrValidation)
}
