package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"

	"go.uber.org/zap"
)

const nowPaymentsBaseURL = "https://api.nowpayments.io"

// NowPaymentsAdapter wraps the NOWPayments hosted-invoice API. Confirmation
// arrives as an IPN callback signed with the account's IPN secret, or can be
// polled through the payments listing for an invoice.
type NowPaymentsAdapter struct {
	APIKey      string
	IPNSecret   string
	FrontendURL string
	BaseURL     string

	client *apiClient
}

func NewNowPaymentsAdapter(apiKey, ipnSecret, frontendURL string, log *zap.Logger) *NowPaymentsAdapter {
	return &NowPaymentsAdapter{
		APIKey:      apiKey,
		IPNSecret:   ipnSecret,
		FrontendURL: frontendURL,
		BaseURL:     nowPaymentsBaseURL,
		client:      newAPIClient(billing.ProviderNowPayments, log),
	}
}

func (a *NowPaymentsAdapter) Name() string { return billing.ProviderNowPayments }

type nowPaymentsInvoiceRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
	SuccessURL       string  `json:"success_url"`
	CancelURL        string  `json:"cancel_url"`
}

type nowPaymentsInvoice struct {
	ID         json.Number `json:"id"`
	InvoiceURL string      `json:"invoice_url"`
}

func (a *NowPaymentsAdapter) CreateCheckout(ctx context.Context, payment *billing.Payment, plan *plans.Plan) (Checkout, error) {
	if a.APIKey == "" {
		return Checkout{}, fmt.Errorf("%w: nowpayments not configured", ErrProvider)
	}

	req := nowPaymentsInvoiceRequest{
		PriceAmount:      payment.Amount,
		PriceCurrency:    strings.ToLower(payment.Currency),
		OrderID:          payment.ID,
		OrderDescription: plan.Name,
		SuccessURL:       a.FrontendURL + "/payment/success?payment_id=" + payment.ID,
		CancelURL:        a.FrontendURL + "/payment/cancel",
	}

	header := http.Header{}
	header.Set("x-api-key", a.APIKey)

	var invoice nowPaymentsInvoice
	if err := a.client.doJSON(ctx, http.MethodPost, a.BaseURL+"/v1/invoice", header, req, &invoice); err != nil {
		return Checkout{}, err
	}

	return Checkout{ProviderRef: invoice.ID.String(), RedirectURL: invoice.InvoiceURL}, nil
}

type nowPaymentsIPN struct {
	InvoiceID     json.Number `json:"invoice_id"`
	PaymentStatus string      `json:"payment_status"`
}

func (a *NowPaymentsAdapter) ParseConfirmation(body []byte, header http.Header) (Confirmation, error) {
	if !a.verifySignature(body, header.Get("x-nowpayments-sig")) {
		return Confirmation{}, ErrInvalidSignature
	}

	var ipn nowPaymentsIPN
	if err := json.Unmarshal(body, &ipn); err != nil {
		return Confirmation{}, fmt.Errorf("parse nowpayments ipn: %w", err)
	}

	switch ipn.PaymentStatus {
	case "finished", "confirmed":
		return Confirmation{ProviderRef: ipn.InvoiceID.String(), Outcome: OutcomeSuccess}, nil
	case "failed", "refunded", "expired":
		return Confirmation{ProviderRef: ipn.InvoiceID.String(), Outcome: OutcomeFailure}, nil
	default:
		// waiting/confirming/sending carry no final outcome yet.
		return Confirmation{}, ErrIgnoredEvent
	}
}

// verifySignature checks the x-nowpayments-sig header: HMAC-SHA512 of the
// payload re-serialized with alphabetically sorted keys, keyed with the IPN
// secret. json.Marshal on a map sorts keys, which matches the provider's
// canonical form.
func (a *NowPaymentsAdapter) verifySignature(body []byte, sig string) bool {
	if a.IPNSecret == "" || sig == "" {
		return false
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	sorted, err := json.Marshal(payload)
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(a.IPNSecret))
	mac.Write(sorted)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sig)))
}

type nowPaymentsPaymentList struct {
	Data []struct {
		PaymentStatus string `json:"payment_status"`
	} `json:"data"`
}

func (a *NowPaymentsAdapter) CheckInvoice(ctx context.Context, providerRef string) (Outcome, error) {
	header := http.Header{}
	header.Set("x-api-key", a.APIKey)

	var list nowPaymentsPaymentList
	url := fmt.Sprintf("%s/v1/payment/?invoiceId=%s&limit=1", a.BaseURL, providerRef)
	if err := a.client.doJSON(ctx, http.MethodGet, url, header, nil, &list); err != nil {
		return OutcomePending, err
	}
	if len(list.Data) == 0 {
		return OutcomePending, nil
	}

	switch list.Data[0].PaymentStatus {
	case "finished", "confirmed":
		return OutcomeSuccess, nil
	case "failed", "refunded", "expired":
		return OutcomeFailure, nil
	default:
		return OutcomePending, nil
	}
}
