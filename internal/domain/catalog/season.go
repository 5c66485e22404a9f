package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Season struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"not null;uniqueIndex:idx_seasons_slug" json:"slug"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	Streams     []Stream  `gorm:"foreignKey:SeasonID" json:"streams,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Season) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
