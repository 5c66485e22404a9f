package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"

	"go.uber.org/zap"
)

// BTCPayAdapter talks to a self-hosted BTCPay Server over the Greenfield
// API. Confirmation arrives as an HMAC-signed webhook, or can be polled via
// the invoice status endpoint.
type BTCPayAdapter struct {
	BaseURL       string
	APIKey        string
	StoreID       string
	WebhookSecret string
	FrontendURL   string

	client *apiClient
}

func NewBTCPayAdapter(baseURL, apiKey, storeID, webhookSecret, frontendURL string, log *zap.Logger) *BTCPayAdapter {
	return &BTCPayAdapter{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIKey:        apiKey,
		StoreID:       storeID,
		WebhookSecret: webhookSecret,
		FrontendURL:   frontendURL,
		client:        newAPIClient(billing.ProviderBTCPay, log),
	}
}

func (a *BTCPayAdapter) Name() string { return billing.ProviderBTCPay }

type btcpayInvoiceRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
	Checkout struct {
		RedirectURL string `json:"redirectURL"`
	} `json:"checkout"`
}

type btcpayInvoice struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	CheckoutLink string `json:"checkoutLink"`
}

func (a *BTCPayAdapter) CreateCheckout(ctx context.Context, payment *billing.Payment, plan *plans.Plan) (Checkout, error) {
	if a.BaseURL == "" {
		return Checkout{}, fmt.Errorf("%w: btcpay not configured", ErrProvider)
	}

	req := btcpayInvoiceRequest{
		Amount:   payment.Amount,
		Currency: payment.Currency,
		Metadata: map[string]string{
			"orderId": payment.ID,
			"planId":  plan.ID,
			"userId":  payment.UserID,
		},
	}
	req.Checkout.RedirectURL = a.FrontendURL + "/payment/success?payment_id=" + payment.ID

	header := http.Header{}
	header.Set("Authorization", "token "+a.APIKey)

	var invoice btcpayInvoice
	url := fmt.Sprintf("%s/api/v1/stores/%s/invoices", a.BaseURL, a.StoreID)
	if err := a.client.doJSON(ctx, http.MethodPost, url, header, req, &invoice); err != nil {
		return Checkout{}, err
	}

	return Checkout{ProviderRef: invoice.ID, RedirectURL: invoice.CheckoutLink}, nil
}

type btcpayWebhookEvent struct {
	Type      string `json:"type"`
	InvoiceID string `json:"invoiceId"`
}

func (a *BTCPayAdapter) ParseConfirmation(body []byte, header http.Header) (Confirmation, error) {
	if !a.verifySignature(body, header.Get("BTCPay-Sig")) {
		return Confirmation{}, ErrInvalidSignature
	}

	var event btcpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return Confirmation{}, fmt.Errorf("parse btcpay webhook: %w", err)
	}

	switch event.Type {
	case "InvoiceSettled":
		return Confirmation{ProviderRef: event.InvoiceID, Outcome: OutcomeSuccess}, nil
	case "InvoiceExpired", "InvoiceInvalid":
		return Confirmation{ProviderRef: event.InvoiceID, Outcome: OutcomeFailure}, nil
	default:
		return Confirmation{}, ErrIgnoredEvent
	}
}

// verifySignature checks the BTCPay-Sig header, "sha256=<hex hmac>" over the
// raw body with the webhook secret.
func (a *BTCPayAdapter) verifySignature(body []byte, sig string) bool {
	if a.WebhookSecret == "" || sig == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(a.WebhookSecret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (a *BTCPayAdapter) CheckInvoice(ctx context.Context, providerRef string) (Outcome, error) {
	header := http.Header{}
	header.Set("Authorization", "token "+a.APIKey)

	var invoice btcpayInvoice
	url := fmt.Sprintf("%s/api/v1/stores/%s/invoices/%s", a.BaseURL, a.StoreID, providerRef)
	if err := a.client.doJSON(ctx, http.MethodGet, url, header, nil, &invoice); err != nil {
		return OutcomePending, err
	}

	switch invoice.Status {
	case "Settled":
		return OutcomeSuccess, nil
	case "Expired", "Invalid":
		return OutcomeFailure, nil
	default:
		return OutcomePending, nil
	}
}
