package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/webhook"
)

// StripeAdapter is the card-payment path: a hosted checkout session up front,
// a signed webhook for confirmation.
type StripeAdapter struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
}

func (a *StripeAdapter) Name() string { return billing.ProviderStripe }

func (a *StripeAdapter) CreateCheckout(ctx context.Context, payment *billing.Payment, plan *plans.Plan) (Checkout, error) {
	if a.SecretKey == "" {
		return Checkout{}, fmt.Errorf("%w: stripe not configured", ErrProvider)
	}
	stripe.Key = a.SecretKey

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(a.FrontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}&payment_id=" + payment.ID),
		CancelURL:  stripe.String(a.FrontendURL + "/payment/cancel"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(payment.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(plan.Name),
					},
					// Amount was snapshotted onto the payment row at initiation.
					UnitAmount: stripe.Int64(int64(math.Round(payment.Amount * 100))),
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(payment.UserID),
		Metadata: map[string]string{
			"payment_id": payment.ID,
			"plan_id":    plan.ID,
			"user_id":    payment.UserID,
		},
	}
	params.Context = ctx

	s, err := checkoutsession.New(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("%w: create checkout session: %v", ErrProvider, err)
	}

	return Checkout{ProviderRef: s.ID, RedirectURL: s.URL}, nil
}

func (a *StripeAdapter) ParseConfirmation(body []byte, header http.Header) (Confirmation, error) {
	event, err := webhook.ConstructEventWithOptions(
		body,
		header.Get("Stripe-Signature"),
		a.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "checkout.session.completed", "checkout.session.expired":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return Confirmation{}, fmt.Errorf("parse checkout session: %w", err)
		}
		outcome := OutcomeSuccess
		if event.Type == "checkout.session.expired" {
			outcome = OutcomeFailure
		}
		return Confirmation{ProviderRef: session.ID, Outcome: outcome}, nil

	default:
		// Acknowledge everything else so Stripe stops retrying.
		return Confirmation{}, ErrIgnoredEvent
	}
}
