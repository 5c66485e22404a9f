package subscriptionsapi

import (
	"errors"
	"net/http"
	"time"

	"supersports-api/internal/app/http/middleware"
	"supersports-api/internal/domain/access"
	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/subscriptions"
	"supersports-api/internal/domain/users"
	"supersports-api/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB         *gorm.DB
	Log        *zap.Logger
	Access     *access.Evaluator
	Sessions   *payments.SessionManager
	Settlement *payments.Settlement
}

func NewHandler(db *gorm.DB, log *zap.Logger, eval *access.Evaluator, sessions *payments.SessionManager, settlement *payments.Settlement) *Handler {
	return &Handler{DB: db, Log: log, Access: eval, Sessions: sessions, Settlement: settlement}
}

// GET /api/subscriptions/my
func (h *Handler) My(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)

	var subs []subscriptions.Subscription
	if err := h.DB.Where("user_id = ?", p.UserID).
		Preload("Plan").Preload("Plan.Season").
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscriptions"})
		return
	}
	c.JSON(http.StatusOK, subs)
}

// GET /api/subscriptions/access/:seasonId
func (h *Handler) CheckAccess(c *gin.Context) {
	p := middleware.CurrentPrincipal(c)

	decision, err := h.Access.SeasonAccess(time.Now(), p, c.Param("seasonId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	c.JSON(http.StatusOK, decision)
}

// POST /api/subscriptions/pay/card
func (h *Handler) PayCard(c *gin.Context) {
	var body struct {
		PlanID string `json:"planId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid planId"})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	result, err := h.Sessions.Initiate(c.Request.Context(), user, body.PlanID, billing.ProviderStripe)
	if err != nil {
		h.paymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": result.ProviderRef,
		"url":       result.RedirectURL,
		"paymentId": result.PaymentID,
	})
}

// POST /api/subscriptions/pay/crypto
func (h *Handler) PayCrypto(c *gin.Context) {
	var body struct {
		Provider string `json:"provider" binding:"required"`
		PlanID   string `json:"planId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing provider or planId"})
		return
	}
	if body.Provider != billing.ProviderBTCPay && body.Provider != billing.ProviderNowPayments {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment provider"})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	result, err := h.Sessions.Initiate(c.Request.Context(), user, body.PlanID, body.Provider)
	if err != nil {
		h.paymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId":  result.PaymentID,
		"invoiceId":  result.ProviderRef,
		"paymentUrl": result.RedirectURL,
	})
}

// GET /api/subscriptions/payment/:paymentId. Owner only.
func (h *Handler) GetPayment(c *gin.Context) {
	payment, ok := h.ownedPayment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, payment)
}

// POST /api/subscriptions/payment/:paymentId/verify. Client-initiated
// confirmation for providers that support status polling. Settles the
// payment when the provider reports a final outcome.
func (h *Handler) VerifyPayment(c *gin.Context) {
	payment, ok := h.ownedPayment(c)
	if !ok {
		return
	}

	if payment.Status == billing.StatusPending && payment.ProviderPaymentID != nil {
		adapter, found := h.Sessions.Provider(payment.Provider)
		if poller, pollable := adapter.(payments.InvoicePoller); found && pollable {
			outcome, err := poller.CheckInvoice(c.Request.Context(), *payment.ProviderPaymentID)
			if err != nil {
				h.Log.Warn("invoice status poll failed",
					zap.String("payment_id", payment.ID), zap.Error(err))
			} else if outcome != payments.OutcomePending {
				if err := h.Settlement.Settle(c.Request.Context(), *payment.ProviderPaymentID, outcome); err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
					return
				}
				// re-read the settled row
				if err := h.DB.First(&payment, "id = ?", payment.ID).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
					return
				}
			}
		}
	}

	c.JSON(http.StatusOK, payment)
}

func (h *Handler) currentUser(c *gin.Context) (*users.User, bool) {
	p := middleware.CurrentPrincipal(c)

	var user users.User
	if err := h.DB.First(&user, "id = ?", p.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}

// ownedPayment loads the payment in the path and enforces that the caller
// owns it; admins may inspect any payment. Non-owners get the same 404 as a
// missing id.
func (h *Handler) ownedPayment(c *gin.Context) (billing.Payment, bool) {
	p := middleware.CurrentPrincipal(c)

	var payment billing.Payment
	if err := h.DB.First(&payment, "id = ?", c.Param("paymentId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return billing.Payment{}, false
	}
	if payment.UserID != p.UserID && !p.IsAdmin() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return billing.Payment{}, false
	}
	return payment, true
}

func (h *Handler) paymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, payments.ErrPlanNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
	case errors.Is(err, payments.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment provider"})
	case errors.Is(err, payments.ErrProvider):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment session"})
	default:
		h.Log.Error("payment initiation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment session"})
	}
}
