package access

import (
	"errors"
	"time"

	"supersports-api/internal/domain/catalog"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/subscriptions"

	"gorm.io/gorm"
)

// Decision is the result of one entitlement check. Subscription is the grant
// that produced the access, when one exists (admin and free-stream bypasses
// carry none).
type Decision struct {
	HasAccess    bool                        `json:"hasAccess"`
	Reason       string                      `json:"reason,omitempty"`
	Subscription *subscriptions.Subscription `json:"subscription"`
}

// Evaluator answers "may this principal view this season/stream right now".
// It only ever reads; any subscription committed before the query is visible.
type Evaluator struct {
	DB *gorm.DB
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{DB: db}
}

// SeasonAccess checks entitlement to an entire season.
func (e *Evaluator) SeasonAccess(now time.Time, p Principal, seasonID string) (Decision, error) {
	if p.IsAdmin() {
		return Decision{HasAccess: true, Reason: "admin"}, nil
	}
	if !p.Authenticated() {
		return Decision{}, nil
	}

	var sub subscriptions.Subscription
	err := e.DB.
		Joins("JOIN plans ON plans.id = subscriptions.plan_id").
		Where("subscriptions.user_id = ?", p.UserID).
		Where("subscriptions.status = ?", subscriptions.StatusActive).
		Where("subscriptions.end_date >= ?", now).
		Where("plans.type = ? OR plans.season_id = ?", plans.TypeMonthly, seasonID).
		Preload("Plan").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, nil
	}
	if err != nil {
		return Decision{}, err
	}

	return Decision{HasAccess: true, Reason: "subscription", Subscription: &sub}, nil
}

// StreamAccess checks entitlement to a single stream. Free streams are open
// to everyone, including anonymous viewers.
func (e *Evaluator) StreamAccess(now time.Time, p Principal, stream *catalog.Stream) (Decision, error) {
	if stream.IsFree {
		return Decision{HasAccess: true, Reason: "free"}, nil
	}
	return e.SeasonAccess(now, p, stream.SeasonID)
}
