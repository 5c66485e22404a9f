package admin

import (
	"net/http"
	"time"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/catalog"
	"supersports-api/internal/domain/subscriptions"
	"supersports-api/internal/domain/users"

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

type PlatformStats struct {
	Users               int64   `json:"users"`
	Seasons             int64   `json:"seasons"`
	Streams             int64   `json:"streams"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
	TotalRevenue        float64 `json:"total_revenue"`
	RecentRevenue       float64 `json:"recent_revenue"`
}

// GET /api/stats
func (h *Handler) Stats(c *gin.Context) {
	var stats PlatformStats

	h.DB.Model(&users.User{}).Count(&stats.Users)
	h.DB.Model(&catalog.Season{}).Count(&stats.Seasons)
	h.DB.Model(&catalog.Stream{}).Count(&stats.Streams)
	h.DB.Model(&subscriptions.Subscription{}).
		Where("status = ? AND end_date >= ?", subscriptions.StatusActive, time.Now()).
		Count(&stats.ActiveSubscriptions)

	h.DB.Model(&billing.Payment{}).
		Where("status = ?", billing.StatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	h.DB.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", billing.StatusCompleted, thirtyDaysAgo).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.RecentRevenue)

	c.JSON(http.StatusOK, stats)
}
