package plans

import (
	"time"

	"supersports-api/internal/domain/catalog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeMonthly  = "monthly"
	TypeSeasonal = "seasonal"
)

// Plan is a purchasable entitlement template. A monthly plan covers every
// season; a seasonal plan covers only its referenced season.
type Plan struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Type         string          `gorm:"type:varchar(20);not null" json:"type"`
	Price        float64         `gorm:"not null" json:"price"`
	Currency     string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	DurationDays int             `gorm:"not null" json:"duration_days"`
	Description  string          `json:"description"`
	Features     []string        `gorm:"serializer:json" json:"features"`
	SeasonID     *string         `gorm:"type:uuid;index" json:"season_id"`
	Season       *catalog.Season `gorm:"foreignKey:SeasonID" json:"season,omitempty"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// CoversSeason reports whether the plan entitles its holder to the given
// season. Monthly plans cover everything.
func (p *Plan) CoversSeason(seasonID string) bool {
	if p.Type == TypeMonthly {
		return true
	}
	return p.SeasonID != nil && *p.SeasonID == seasonID
}
