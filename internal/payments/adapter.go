package payments

import (
	"context"
	"net/http"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomePending Outcome = "pending"
)

// Checkout is a hosted payment page created at the provider. ProviderRef is
// the provider-side invoice/session identifier; everything outside the
// adapters treats it as an opaque string.
type Checkout struct {
	ProviderRef string
	RedirectURL string
}

// Confirmation is a provider callback reduced to what settlement needs.
type Confirmation struct {
	ProviderRef string
	Outcome     Outcome
}

// Adapter wraps one external payment API. Adapters are the only code aware
// of provider-specific request/response shapes.
type Adapter interface {
	Name() string
	CreateCheckout(ctx context.Context, payment *billing.Payment, plan *plans.Plan) (Checkout, error)

	// ParseConfirmation authenticates and decodes a raw webhook delivery.
	// Returns ErrInvalidSignature when the payload cannot be trusted and
	// ErrIgnoredEvent for event types that carry no settlement outcome.
	ParseConfirmation(body []byte, header http.Header) (Confirmation, error)
}

// InvoicePoller is implemented by adapters whose provider supports
// client-initiated status verification in addition to webhooks.
type InvoicePoller interface {
	CheckInvoice(ctx context.Context, providerRef string) (Outcome, error)
}
