package subscriptions

import (
	"time"

	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Subscription is a time-bounded access grant. Rows are created only by the
// settlement engine (from a completed payment) or the admin grant path, and
// are never deleted; cancellation flips the status. Expiry is computed from
// EndDate at read time rather than driven by a background transition.
type Subscription struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *users.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanID    string      `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan      *plans.Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	StartDate time.Time   `gorm:"not null" json:"start_date"`
	EndDate   time.Time   `gorm:"not null" json:"end_date"`
	Status    string      `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	// PaymentID links a paid subscription back to the payment that settled
	// it. The unique index is the store-level guarantee of one subscription
	// per completed payment. Nil for admin grants.
	PaymentID *string `gorm:"type:uuid;uniqueIndex:idx_subscriptions_payment_id" json:"payment_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
