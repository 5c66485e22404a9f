package payments

import "errors"

var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnsupportedProvider  = errors.New("unsupported payment provider")

	// ErrProvider wraps failures of the external payment API. The payment row
	// is never promoted to completed on this path.
	ErrProvider = errors.New("payment provider error")

	// ErrInvalidSignature marks a webhook whose signature did not verify.
	// Rejected with no state change.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrIgnoredEvent marks a webhook event type the settlement flow does not
	// act on. Handlers ACK these so providers stop retrying.
	ErrIgnoredEvent = errors.New("webhook event ignored")
)
