package billing

import (
	"time"

	"supersports-api/internal/domain/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ProviderStripe      = "stripe"
	ProviderBTCPay      = "btcpay"
	ProviderNowPayments = "nowpayments"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PaymentMetadata carries the purchase context through the provider round
// trip. Stored as a structured JSON column, never as an opaque string blob.
type PaymentMetadata struct {
	PlanID string `json:"plan_id"`
	UserID string `json:"user_id"`
}

// Payment records one checkout attempt. Status only ever moves
// pending -> completed or pending -> failed; the settlement engine is the
// sole writer of those transitions.
type Payment struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string          `gorm:"type:uuid;not null;index" json:"user_id"`
	User              *users.User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount            float64         `gorm:"not null" json:"amount"`
	Currency          string          `gorm:"type:varchar(10);not null" json:"currency"`
	Provider          string          `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderPaymentID *string         `gorm:"uniqueIndex:idx_payments_provider_payment_id" json:"provider_payment_id"`
	Status            string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Metadata          PaymentMetadata `gorm:"serializer:json" json:"metadata"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
