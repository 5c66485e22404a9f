package streams

import (
	"net/http"
	"time"

	"supersports-api/internal/app/http/middleware"
	"supersports-api/internal/domain/access"
	"supersports-api/internal/domain/catalog"

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

// streamView is the entitlement-aware projection of a stream: for viewers
// without access to a paid stream the playback URL is withheld.
type streamView struct {
	catalog.Stream
	RequiresSubscription bool `json:"requires_subscription,omitempty"`
}

func gate(s catalog.Stream, hasAccess bool) streamView {
	v := streamView{Stream: s}
	if !hasAccess && !s.IsFree {
		v.StreamURL = nil
		v.RequiresSubscription = true
	}
	return v
}

// GET /api/streams
func (h *Handler) List(c *gin.Context) {
	var all []catalog.Stream
	if err := h.DB.Preload("Season").Order("scheduled_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get streams"})
		return
	}
	c.JSON(http.StatusOK, all)
}

// GET /api/streams/live
func (h *Handler) Live(c *gin.Context) {
	var live []catalog.Stream
	if err := h.DB.Where("is_live = ?", true).Preload("Season").Order("view_count DESC").Find(&live).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get live streams"})
		return
	}
	c.JSON(http.StatusOK, live)
}

// GET /api/streams/upcoming
func (h *Handler) Upcoming(c *gin.Context) {
	var upcoming []catalog.Stream
	if err := h.DB.Where("scheduled_at >= ? AND is_live = ?", time.Now(), false).
		Preload("Season").Order("scheduled_at ASC").Limit(20).
		Find(&upcoming).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get upcoming streams"})
		return
	}
	c.JSON(http.StatusOK, upcoming)
}

// GET /api/streams/season/:seasonId (optional auth). One entitlement check
// covers the whole listing; non-entitled viewers still see the catalog, just
// without playback URLs.
func (h *Handler) SeasonStreams(c *gin.Context) {
	seasonID := c.Param("seasonId")

	var list []catalog.Stream
	if err := h.DB.Where("season_id = ?", seasonID).Preload("Season").
		Order("scheduled_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get streams"})
		return
	}

	p := middleware.CurrentPrincipal(c)
	decision, err := h.Access.SeasonAccess(time.Now(), p, seasonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get streams"})
		return
	}

	out := make([]streamView, 0, len(list))
	for _, s := range list {
		out = append(out, gate(s, decision.HasAccess))
	}
	c.JSON(http.StatusOK, gin.H{"streams": out, "hasAccess": decision.HasAccess})
}

// GET /api/streams/:streamId (optional auth). Paid streams require an
// authenticated, entitled viewer; free streams are open to everyone.
func (h *Handler) Get(c *gin.Context) {
	var stream catalog.Stream
	if err := h.DB.Preload("Season").First(&stream, "id = ?", c.Param("streamId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return
	}

	p := middleware.CurrentPrincipal(c)
	decision, err := h.Access.StreamAccess(time.Now(), p, &stream)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stream"})
		return
	}
	if !decision.HasAccess {
		if !p.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Subscription required", "season_id": stream.SeasonID})
		return
	}

	if err := h.DB.Model(&catalog.Stream{}).Where("id = ?", stream.ID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		h.Log.Warn("failed to bump view count", zap.String("stream_id", stream.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, stream)
}

// GET /api/streams/admin/all
func (h *Handler) ListAll(c *gin.Context) {
	var all []catalog.Stream
	if err := h.DB.Preload("Season").Order("created_at DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get streams"})
		return
	}
	c.JSON(http.StatusOK, all)
}

type streamInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Thumbnail   *string    `json:"thumbnail"`
	StreamURL   *string    `json:"stream_url"`
	StreamType  *string    `json:"stream_type"`
	SeasonID    string     `json:"season_id"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	EndTime     *time.Time `json:"end_time"`
	IsLive      *bool      `json:"is_live"`
	IsVod       *bool      `json:"is_vod"`
	IsFree      *bool      `json:"is_free"`
}

// POST /api/streams
func (h *Handler) Create(c *gin.Context) {
	var input streamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Title == "" || input.StreamURL == nil || *input.StreamURL == "" || input.SeasonID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, stream_url, and season_id are required"})
		return
	}

	var season catalog.Season
	if err := h.DB.First(&season, "id = ?", input.SeasonID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Season not found"})
		return
	}

	stream := catalog.Stream{
		Title:       input.Title,
		StreamURL:   input.StreamURL,
		StreamType:  "hls",
		SeasonID:    input.SeasonID,
		ScheduledAt: input.ScheduledAt,
		EndTime:     input.EndTime,
	}
	if input.Description != nil {
		stream.Description = *input.Description
	}
	if input.Thumbnail != nil {
		stream.Thumbnail = *input.Thumbnail
	}
	if input.StreamType != nil && *input.StreamType != "" {
		stream.StreamType = *input.StreamType
	}
	if input.IsLive != nil {
		stream.IsLive = *input.IsLive
	}
	if input.IsVod != nil {
		stream.IsVod = *input.IsVod
	}
	if input.IsFree != nil {
		stream.IsFree = *input.IsFree
	}

	if err := h.DB.Create(&stream).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create stream"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Stream created", "stream": stream})
}

// PUT /api/streams/:streamId
func (h *Handler) Update(c *gin.Context) {
	var stream catalog.Stream
	if err := h.DB.First(&stream, "id = ?", c.Param("streamId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return
	}

	var input streamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	updates := map[string]interface{}{}
	if input.Title != "" {
		updates["title"] = input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Thumbnail != nil {
		updates["thumbnail"] = *input.Thumbnail
	}
	if input.StreamURL != nil && *input.StreamURL != "" {
		updates["stream_url"] = *input.StreamURL
	}
	if input.StreamType != nil && *input.StreamType != "" {
		updates["stream_type"] = *input.StreamType
	}
	if input.SeasonID != "" {
		var season catalog.Season
		if err := h.DB.First(&season, "id = ?", input.SeasonID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Season not found"})
			return
		}
		updates["season_id"] = input.SeasonID
	}
	if input.ScheduledAt != nil {
		updates["scheduled_at"] = *input.ScheduledAt
	}
	if input.EndTime != nil {
		updates["end_time"] = *input.EndTime
	}
	if input.IsLive != nil {
		updates["is_live"] = *input.IsLive
	}
	if input.IsVod != nil {
		updates["is_vod"] = *input.IsVod
	}
	if input.IsFree != nil {
		updates["is_free"] = *input.IsFree
	}

	if err := h.DB.Model(&stream).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stream updated", "stream": stream})
}

// DELETE /api/streams/:streamId
func (h *Handler) Delete(c *gin.Context) {
	res := h.DB.Delete(&catalog.Stream{}, "id = ?", c.Param("streamId"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stream"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stream deleted"})
}

// PATCH /api/streams/:streamId/live
func (h *Handler) ToggleLive(c *gin.Context) {
	var stream catalog.Stream
	if err := h.DB.First(&stream, "id = ?", c.Param("streamId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return
	}

	stream.IsLive = !stream.IsLive
	if err := h.DB.Model(&stream).Update("is_live", stream.IsLive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stream updated", "stream": stream})
}
