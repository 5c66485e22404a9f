package plansapi

import (
	"net/http"

	"supersports-api/internal/domain/catalog"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/subscriptions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewHandler(db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{DB: db, Log: log}
}

// GET /api/plans
func (h *Handler) List(c *gin.Context) {
	var active []plans.Plan
	if err := h.DB.Where("is_active = ?", true).Preload("Season").Order("price ASC").Find(&active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get plans"})
		return
	}
	c.JSON(http.StatusOK, active)
}

// GET /api/plans/season/:seasonId returns the plans that unlock this season:
// its seasonal passes plus every monthly plan.
func (h *Handler) SeasonPlans(c *gin.Context) {
	var matching []plans.Plan
	if err := h.DB.
		Where("is_active = ? AND (season_id = ? OR type = ?)", true, c.Param("seasonId"), plans.TypeMonthly).
		Preload("Season").Order("price ASC").
		Find(&matching).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get plans"})
		return
	}
	c.JSON(http.StatusOK, matching)
}

// GET /api/plans/admin/all
func (h *Handler) ListAll(c *gin.Context) {
	var all []plans.Plan
	if err := h.DB.Preload("Season").Order("created_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get plans"})
		return
	}

	type planWithCount struct {
		plans.Plan
		SubscriptionCount int64 `json:"subscription_count"`
	}
	out := make([]planWithCount, 0, len(all))
	for _, p := range all {
		var count int64
		h.DB.Model(&subscriptions.Subscription{}).Where("plan_id = ?", p.ID).Count(&count)
		out = append(out, planWithCount{Plan: p, SubscriptionCount: count})
	}
	c.JSON(http.StatusOK, out)
}

type planInput struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Price        *float64  `json:"price"`
	Currency     string    `json:"currency"`
	DurationDays *int      `json:"duration_days"`
	Description  *string   `json:"description"`
	Features     *[]string `json:"features"`
	SeasonID     *string   `json:"season_id"`
	IsActive     *bool     `json:"is_active"`
}

// POST /api/plans
func (h *Handler) Create(c *gin.Context) {
	var input planInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Name == "" || input.Type == "" || input.Price == nil || input.DurationDays == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, type, price, and duration_days are required"})
		return
	}
	if input.Type != plans.TypeMonthly && input.Type != plans.TypeSeasonal {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be monthly or seasonal"})
		return
	}
	if input.Type == plans.TypeSeasonal && (input.SeasonID == nil || *input.SeasonID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Seasonal plans require a season_id"})
		return
	}

	plan := plans.Plan{
		Name:         input.Name,
		Type:         input.Type,
		Price:        *input.Price,
		Currency:     "USD",
		DurationDays: *input.DurationDays,
		IsActive:     true,
	}
	if input.Currency != "" {
		plan.Currency = input.Currency
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Features != nil {
		plan.Features = *input.Features
	}
	// A monthly plan covers all seasons; any season_id supplied with it is
	// dropped rather than stored.
	if input.Type == plans.TypeSeasonal {
		var season catalog.Season
		if err := h.DB.First(&season, "id = ?", *input.SeasonID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Season not found"})
			return
		}
		plan.SeasonID = input.SeasonID
	}

	if err := h.DB.Create(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Plan created", "plan": plan})
}

// PUT /api/plans/:planId. Edits never touch in-flight payments; amounts are
// snapshotted onto the payment row at initiation.
func (h *Handler) Update(c *gin.Context) {
	var plan plans.Plan
	if err := h.DB.First(&plan, "id = ?", c.Param("planId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}

	var input planInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}

	newType := plan.Type
	if input.Type != "" {
		if input.Type != plans.TypeMonthly && input.Type != plans.TypeSeasonal {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be monthly or seasonal"})
			return
		}
		newType = input.Type
		updates["type"] = input.Type
	}

	// The type/season pairing holds across edits too: seasonal plans always
	// reference an existing season, monthly plans never reference one.
	switch newType {
	case plans.TypeMonthly:
		if input.SeasonID != nil || plan.SeasonID != nil {
			updates["season_id"] = nil
		}
	case plans.TypeSeasonal:
		seasonID := plan.SeasonID
		if input.SeasonID != nil {
			seasonID = input.SeasonID
		}
		if seasonID == nil || *seasonID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Seasonal plans require a season_id"})
			return
		}
		if input.SeasonID != nil {
			var season catalog.Season
			if err := h.DB.First(&season, "id = ?", *seasonID).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Season not found"})
				return
			}
			updates["season_id"] = *seasonID
		}
	}

	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.Currency != "" {
		updates["currency"] = input.Currency
	}
	if input.DurationDays != nil {
		updates["duration_days"] = *input.DurationDays
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := h.DB.Model(&plan).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
		return
	}
	if input.Features != nil {
		plan.Features = *input.Features
		if err := h.DB.Model(&plan).Update("features", plan.Features).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan updated", "plan": plan})
}

// DELETE /api/plans/:planId. Rejected while any subscription references the
// plan; deactivate instead to stop selling it.
func (h *Handler) Delete(c *gin.Context) {
	planID := c.Param("planId")

	var count int64
	if err := h.DB.Model(&subscriptions.Subscription{}).Where("plan_id = ?", planID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete plan"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Plan has subscriptions; deactivate it instead"})
		return
	}

	res := h.DB.Delete(&plans.Plan{}, "id = ?", planID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete plan"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}
