package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

var (
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidState       = errors.New("payment is not in a valid state for this operation")
	ErrRefundExceedsTotal = errors.New("refund amount exceeds order total")
	ErrForbidden          = errors.New("order belongs to another user")
	ErrValidation         = errors.New("validation error")
)

// GatewayError is a definitive gateway response or a timeout; Timeout
// distinguishes infrastructure failures from card-level rejections so
// callers can map them to different HTTP classes.
type GatewayError struct {
	Code    string
	Message string
	Timeout bool
}

func (e *GatewayError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("gateway timeout: %s", e.Message)
	}
	return fmt.Sprintf("gateway rejected (%s): %s", e.Code, e.Message)
}

// Intent mirrors the gateway's payment-intent object.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// EventKind is the canonical set of webhook events this system models.
type EventKind string

const (
	EventPaymentSucceeded      EventKind = "payment_succeeded"
	EventPaymentFailed         EventKind = "payment_failed"
	EventPaymentCanceled       EventKind = "payment_canceled"
	EventPaymentRequiresAction EventKind = "payment_requires_action"
	EventChargeRefunded        EventKind = "charge_refunded"
	EventDisputeCreated        EventKind = "dispute_created"
	// EventUnknown is acknowledged and ignored so the gateway stops
	// redelivering events this system does not model.
	EventUnknown EventKind = "unknown"
)

// Event is a verified, SDK-independent webhook event.
type Event struct {
	ID             string
	Kind           EventKind
	IntentID       string
	Amount         float64
	AmountRefunded float64
	FullyRefunded  bool
	FailureCode    string
	FailureMessage string
	DisputeReason  string
}

// Gateway abstracts the external payment provider.
type Gateway interface {
	CreateCustomer(ctx context.Context, user *models.User) (string, error)
	CreateIntent(ctx context.Context, amountCents int64, currency, customerID string, metadata map[string]string) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*Intent, error)
	Refund(ctx context.Context, intentID string, amountCents int64) (string, error)
	// VerifyWebhook authenticates the raw payload against its signature
	// before any of it is trusted; it returns ErrInvalidSignature otherwise.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
