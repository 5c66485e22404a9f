package subscriptionsapi

import (
	"errors"
	"net/http"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/subscriptions"
	"supersports-api/internal/payments"

	"github.com/gin-gonic/gin"
)

// POST /api/subscriptions/admin/grant creates a subscription without a
// payment row.
func (h *Handler) Grant(c *gin.Context) {
	var body struct {
		UserID       string `json:"userId" binding:"required"`
		PlanID       string `json:"planId" binding:"required"`
		DurationDays *int   `json:"durationDays"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and planId are required"})
		return
	}

	sub, err := h.Settlement.Grant(c.Request.Context(), body.UserID, body.PlanID, body.DurationDays)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, payments.ErrPlanNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grant subscription"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscription granted", "subscription": sub})
}

// DELETE /api/subscriptions/admin/:subscriptionId
func (h *Handler) CancelSubscription(c *gin.Context) {
	sub, err := h.Settlement.Cancel(c.Request.Context(), c.Param("subscriptionId"))
	if err != nil {
		if errors.Is(err, payments.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled", "subscription": sub})
}

// GET /api/subscriptions/admin/all
func (h *Handler) ListAllSubscriptions(c *gin.Context) {
	var subs []subscriptions.Subscription
	if err := h.DB.
		Preload("User").Preload("Plan").Preload("Plan.Season").
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get subscriptions"})
		return
	}
	c.JSON(http.StatusOK, subs)
}

// GET /api/subscriptions/admin/payments
func (h *Handler) ListAllPayments(c *gin.Context) {
	var all []billing.Payment
	if err := h.DB.Preload("User").Order("created_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get payments"})
		return
	}
	c.JSON(http.StatusOK, all)
}
