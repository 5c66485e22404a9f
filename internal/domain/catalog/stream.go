package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Stream struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	StreamURL   *string    `gorm:"column:stream_url" json:"stream_url"`
	StreamType  string     `gorm:"type:varchar(20);not null;default:'hls'" json:"stream_type"`
	SeasonID    string     `gorm:"type:uuid;not null;index" json:"season_id"`
	Season      *Season    `gorm:"foreignKey:SeasonID" json:"season,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at"`
	EndTime     *time.Time `json:"end_time"`
	IsLive      bool       `gorm:"not null;default:false" json:"is_live"`
	IsVod       bool       `gorm:"not null;default:false" json:"is_vod"`
	IsFree      bool       `gorm:"not null;default:false" json:"is_free"`
	ViewCount   int64      `gorm:"not null;default:0" json:"view_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *Stream) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
