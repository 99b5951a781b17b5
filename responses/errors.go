package responses

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/inventory"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/notifications"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/orders"
	"github.com/Matthew-Ayinde/shoe-api2-sub000/services/payments"
)

// MapError translates service errors into the response envelope with a
// stable machine-readable kind. Unanticipated errors become a generic 500
// so internals never leak to the caller.
func MapError(c *fiber.Ctx, err error) error {
	var stockErr *inventory.InsufficientStockError
	if errors.As(err, &stockErr) {
		return Error(c, fiber.StatusBadRequest, "InsufficientStock", stockErr.Error())
	}

	var gwErr *payments.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.Timeout {
			return Error(c, fiber.StatusGatewayTimeout, "GatewayTimeout", "Payment provider timed out, please try again")
		}
		return Error(c, fiber.StatusPaymentRequired, "GatewayRejected", gwErr.Error())
	}

	switch {
	case errors.Is(err, orders.ErrValidation) || errors.Is(err, payments.ErrValidation):
		return Error(c, fiber.StatusBadRequest, "ValidationError", err.Error())
	case errors.Is(err, orders.ErrEmptyOrder):
		return Error(c, fiber.StatusBadRequest, "EmptyOrder", "No items to order: request items or cart is empty")
	case errors.Is(err, orders.ErrProductUnavailable) || errors.Is(err, inventory.ErrProductNotFound):
		return Error(c, fiber.StatusBadRequest, "ProductUnavailable", err.Error())
	case errors.Is(err, orders.ErrVariantUnavailable) || errors.Is(err, inventory.ErrVariantNotFound):
		return Error(c, fiber.StatusBadRequest, "VariantUnavailable", err.Error())
	case errors.Is(err, inventory.ErrInactiveVariant):
		return Error(c, fiber.StatusBadRequest, "InactiveVariant", err.Error())
	case errors.Is(err, orders.ErrOrderNotFound) || errors.Is(err, notifications.ErrUserNotFound):
		return Error(c, fiber.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, orders.ErrForbidden) || errors.Is(err, payments.ErrForbidden):
		return Error(c, fiber.StatusForbidden, "Forbidden", "You do not have access to this resource")
	case errors.Is(err, orders.ErrNotCancellable):
		return Error(c, fiber.StatusConflict, "NotCancellable", err.Error())
	case errors.Is(err, payments.ErrInvalidState):
		return Error(c, fiber.StatusConflict, "InvalidPaymentState", err.Error())
	case errors.Is(err, payments.ErrRefundExceedsTotal):
		return Error(c, fiber.StatusBadRequest, "RefundExceedsTotal", err.Error())
	case errors.Is(err, payments.ErrInvalidSignature):
		return Error(c, fiber.StatusBadRequest, "InvalidWebhookSignature", "Webhook signature verification failed")
	default:
		return Error(c, fiber.StatusInternalServerError, "Internal", "Something went wrong")
	}
}
