package seasons

import (
	"net/http"
	"time"

	"supersports-api/internal/app/http/middleware"
	"supersports-api/internal/domain/access"
	"supersports-api/internal/domain/catalog"
	"supersports-api/internal/domain/plans"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	DB     *gorm.DB
	Log    *zap.Logger
	Access *access.Evaluator
}

func NewHandler(db *gorm.DB, log *zap.Logger, eval *access.Evaluator) *Handler {
	return &Handler{DB: db, Log: log, Access: eval}
}

// GET /api/seasons
func (h *Handler) List(c *gin.Context) {
	var seasons []catalog.Season
	if err := h.DB.Where("is_active = ?", true).Order("start_date DESC").Find(&seasons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get seasons"})
		return
	}

	ids := make([]string, 0, len(seasons))
	for _, s := range seasons {
		ids = append(ids, s.ID)
	}

	plansBySeason := map[string][]plans.Plan{}
	if len(ids) > 0 {
		var seasonPlans []plans.Plan
		if err := h.DB.Where("is_active = ? AND season_id IN ?", true, ids).Find(&seasonPlans).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get seasons"})
			return
		}
		for _, p := range seasonPlans {
			plansBySeason[*p.SeasonID] = append(plansBySeason[*p.SeasonID], p)
		}
	}

	type streamCount struct {
		SeasonID string
		Count    int64
	}
	var counts []streamCount
	if len(ids) > 0 {
		if err := h.DB.Model(&catalog.Stream{}).
			Select("season_id, COUNT(*) as count").
			Where("season_id IN ?", ids).
			Group("season_id").
			Scan(&counts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get seasons"})
			return
		}
	}
	countBySeason := map[string]int64{}
	for _, sc := range counts {
		countBySeason[sc.SeasonID] = sc.Count
	}

	out := make([]gin.H, 0, len(seasons))
	for _, s := range seasons {
		out = append(out, gin.H{
			"season":       s,
			"plans":        plansBySeason[s.ID],
			"stream_count": countBySeason[s.ID],
		})
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/seasons/:slug (optional auth; response carries hasAccess)
func (h *Handler) GetBySlug(c *gin.Context) {
	var season catalog.Season
	if err := h.DB.Where("slug = ?", c.Param("slug")).
		Preload("Streams", func(db *gorm.DB) *gorm.DB {
			return db.Order("scheduled_at DESC")
		}).
		First(&season).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
		return
	}

	var seasonPlans []plans.Plan
	if err := h.DB.Where("is_active = ? AND (season_id = ? OR type = ?)", true, season.ID, plans.TypeMonthly).
		Find(&seasonPlans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get season"})
		return
	}

	p := middleware.CurrentPrincipal(c)
	decision, err := h.Access.SeasonAccess(time.Now(), p, season.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get season"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"season":    season,
		"plans":     seasonPlans,
		"hasAccess": decision.HasAccess,
	})
}

// GET /api/seasons/admin/all
func (h *Handler) ListAll(c *gin.Context) {
	var seasons []catalog.Season
	if err := h.DB.Order("start_date DESC").Find(&seasons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get seasons"})
		return
	}
	c.JSON(http.StatusOK, seasons)
}

type seasonInput struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	Thumbnail   *string    `json:"thumbnail"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	IsActive    *bool      `json:"is_active"`
}

// POST /api/seasons
func (h *Handler) Create(c *gin.Context) {
	var input seasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Name == "" || input.Slug == "" || input.StartDate == nil || input.EndDate == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, slug, start_date, and end_date are required"})
		return
	}

	season := catalog.Season{
		Name:      input.Name,
		Slug:      input.Slug,
		StartDate: *input.StartDate,
		EndDate:   *input.EndDate,
		IsActive:  true,
	}
	if input.Description != nil {
		season.Description = *input.Description
	}
	if input.Thumbnail != nil {
		season.Thumbnail = *input.Thumbnail
	}

	if err := h.DB.Create(&season).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Season slug already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Season created", "season": season})
}

// PUT /api/seasons/:seasonId
func (h *Handler) Update(c *gin.Context) {
	var season catalog.Season
	if err := h.DB.First(&season, "id = ?", c.Param("seasonId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
		return
	}

	var input seasonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Slug != "" {
		updates["slug"] = input.Slug
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Thumbnail != nil {
		updates["thumbnail"] = *input.Thumbnail
	}
	if input.StartDate != nil {
		updates["start_date"] = *input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = *input.EndDate
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := h.DB.Model(&season).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update season"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Season updated", "season": season})
}

// DELETE /api/seasons/:seasonId. Rejected while streams or plans reference
// the season.
func (h *Handler) Delete(c *gin.Context) {
	seasonID := c.Param("seasonId")

	var streamCount int64
	h.DB.Model(&catalog.Stream{}).Where("season_id = ?", seasonID).Count(&streamCount)
	var planCount int64
	h.DB.Model(&plans.Plan{}).Where("season_id = ?", seasonID).Count(&planCount)
	if streamCount > 0 || planCount > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Season still has streams or plans"})
		return
	}

	res := h.DB.Delete(&catalog.Season{}, "id = ?", seasonID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete season"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Season not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Season deleted"})
}
