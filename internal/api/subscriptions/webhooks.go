package subscriptionsapi

import (
	"errors"
	"io"
	"net/http"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 65536

// POST /api/subscriptions/webhook/card. Raw body, Stripe-Signature header.
func (h *Handler) CardWebhook(c *gin.Context) {
	h.handleWebhook(c, billing.ProviderStripe)
}

// POST /api/subscriptions/webhook/crypto/:provider. BTCPay webhook or
// NOWPayments IPN, authenticated by its HMAC header.
func (h *Handler) CryptoWebhook(c *gin.Context) {
	provider := c.Param("provider")
	if provider != billing.ProviderBTCPay && provider != billing.ProviderNowPayments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown provider"})
		return
	}
	h.handleWebhook(c, provider)
}

// handleWebhook is shared by every provider callback. Contract with the
// providers: 200 for anything that needs no further delivery (including
// no-ops), non-200 only when a retry could succeed or when the payload
// cannot be trusted at all.
func (h *Handler) handleWebhook(c *gin.Context, provider string) {
	adapter, ok := h.Sessions.Provider(provider)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Provider not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	conf, err := adapter.ParseConfirmation(body, c.Request.Header)
	if err != nil {
		if errors.Is(err, payments.ErrIgnoredEvent) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		if errors.Is(err, payments.ErrInvalidSignature) {
			// Security event: someone posted a payload we cannot trust.
			h.Log.Warn("webhook signature verification failed",
				zap.String("provider", provider),
				zap.String("remote_addr", c.ClientIP()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return
	}

	if err := h.Settlement.Settle(c.Request.Context(), conf.ProviderRef, conf.Outcome); err != nil {
		// Genuine processing failure; non-200 makes the provider retry.
		h.Log.Error("settlement failed",
			zap.String("provider", provider),
			zap.String("provider_ref", conf.ProviderRef),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
