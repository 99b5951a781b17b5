package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Matthew-Ayinde/shoe-api2-sub000/models"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, user *models.User) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(user.Name),
		Email: stripe.String(user.Email),
	}
	params.Context = ctx
	params.AddMetadata("userId", user.Id.Hex())

	cust, err := customer.New(params)
	if err != nil {
		return "", mapStripeErr(err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, currency, customerID string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, mapStripeErr(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) ConfirmIntent(ctx context.Context, intentID, paymentMethodID string) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return nil, mapStripeErr(err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string, amountCents int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return "", mapStripeErr(err)
	}
	return r.ID, nil
}

// VerifyWebhook checks the Stripe-Signature header against the endpoint
// secret and maps the event onto the canonical Event. Unmodeled event
// types come back as EventUnknown so the webhook handler can acknowledge
// them without acting.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	ev := &Event{ID: stripeEvent.ID}

	switch stripeEvent.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed",
		"payment_intent.canceled", "payment_intent.requires_action":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(stripeEvent.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent event: %w", err)
		}
		ev.IntentID = pi.ID
		ev.Amount = float64(pi.Amount) / 100
		if pi.LastPaymentError != nil {
			ev.FailureCode = string(pi.LastPaymentError.Code)
			ev.FailureMessage = pi.LastPaymentError.Msg
		}
		switch stripeEvent.Type {
		case "payment_intent.succeeded":
			ev.Kind = EventPaymentSucceeded
		case "payment_intent.payment_failed":
			ev.Kind = EventPaymentFailed
		case "payment_intent.canceled":
			ev.Kind = EventPaymentCanceled
		default:
			ev.Kind = EventPaymentRequiresAction
		}

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(stripeEvent.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge event: %w", err)
		}
		ev.Kind = EventChargeRefunded
		if ch.PaymentIntent != nil {
			ev.IntentID = ch.PaymentIntent.ID
		}
		ev.AmountRefunded = float64(ch.AmountRefunded) / 100
		ev.FullyRefunded = ch.Refunded

	case "charge.dispute.created":
		var d stripe.Dispute
		if err := json.Unmarshal(stripeEvent.Data.Raw, &d); err != nil {
			return nil, fmt.Errorf("decode dispute event: %w", err)
		}
		ev.Kind = EventDisputeCreated
		if d.PaymentIntent != nil {
			ev.IntentID = d.PaymentIntent.ID
		}
		ev.Amount = float64(d.Amount) / 100
		ev.DisputeReason = string(d.Reason)

	default:
		ev.Kind = EventUnknown
	}

	return ev, nil
}

// mapStripeErr folds SDK errors into the two failure kinds the rest of
// the system distinguishes: a definitive rejection or a timeout.
func mapStripeErr(err error) error {
	if err == nil {
		return nil
	}

	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		return &GatewayError{Code: string(sErr.Code), Message: sErr.Msg}
	}

	var nErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nErr) && nErr.Timeout()) {
		return &GatewayError{Code: "timeout", Message: err.Error(), Timeout: true}
	}
	return err
}
