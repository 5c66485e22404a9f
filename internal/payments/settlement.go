package payments

import (
	"context"
	"errors"
	"time"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/subscriptions"
	"supersports-api/internal/domain/users"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settlement turns confirmed payments into subscriptions. It is the only
// writer of payment status transitions and of paid subscription rows.
type Settlement struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewSettlement(db *gorm.DB, log *zap.Logger) *Settlement {
	return &Settlement{db: db, log: log, now: time.Now}
}

// Settle applies a provider confirmation to the payment identified by
// providerRef. Unknown refs and duplicate deliveries are no-ops, not errors;
// providers retry on non-2xx and must not be made to retry forever. The
// status flip and the subscription insert commit atomically.
func (s *Settlement) Settle(ctx context.Context, providerRef string, outcome Outcome) error {
	if outcome == OutcomePending {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment billing.Payment
		err := tx.Where("provider_payment_id = ?", providerRef).First(&payment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("confirmation for unknown payment", zap.String("provider_ref", providerRef))
			return nil
		}
		if err != nil {
			return err
		}

		if payment.Status == billing.StatusCompleted {
			// Duplicate delivery; the subscription already exists.
			s.log.Info("duplicate confirmation ignored", zap.String("payment_id", payment.ID))
			return nil
		}

		if outcome == OutcomeFailure {
			return tx.Model(&billing.Payment{}).
				Where("id = ? AND status = ?", payment.ID, billing.StatusPending).
				Update("status", billing.StatusFailed).Error
		}

		// Compare-and-swap on pending guards against a racing duplicate that
		// passed the read above.
		res := tx.Model(&billing.Payment{}).
			Where("id = ? AND status = ?", payment.ID, billing.StatusPending).
			Update("status", billing.StatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			s.log.Info("payment already settled concurrently", zap.String("payment_id", payment.ID))
			return nil
		}

		var plan plans.Plan
		if err := tx.First(&plan, "id = ?", payment.Metadata.PlanID).Error; err != nil {
			// Rolls back the status flip; the provider will retry.
			return err
		}

		// The stored payment row, not provider-side metadata, decides who
		// gets the subscription.
		now := s.now()
		sub := subscriptions.Subscription{
			UserID:    payment.UserID,
			PlanID:    plan.ID,
			StartDate: now,
			EndDate:   now.AddDate(0, 0, plan.DurationDays),
			Status:    subscriptions.StatusActive,
			PaymentID: &payment.ID,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}

		s.log.Info("payment settled",
			zap.String("payment_id", payment.ID),
			zap.String("subscription_id", sub.ID),
			zap.String("user_id", payment.UserID),
			zap.String("plan_id", plan.ID))
		return nil
	})
}

// Grant is the admin bypass: a subscription with no backing payment.
// durationDays overrides the plan duration when non-nil.
func (s *Settlement) Grant(ctx context.Context, userID, planID string, durationDays *int) (*subscriptions.Subscription, error) {
	var user users.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var plan plans.Plan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	days := plan.DurationDays
	if durationDays != nil {
		days = *durationDays
	}

	now := s.now()
	sub := subscriptions.Subscription{
		UserID:    user.ID,
		PlanID:    plan.ID,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, days),
		Status:    subscriptions.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}

	s.log.Info("subscription granted by admin",
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", user.ID),
		zap.String("plan_id", plan.ID),
		zap.Int("duration_days", days))

	sub.Plan = &plan
	return &sub, nil
}

// Cancel is the explicit terminal override. The row is kept for history.
func (s *Settlement) Cancel(ctx context.Context, subscriptionID string) (*subscriptions.Subscription, error) {
	var sub subscriptions.Subscription
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", subscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&sub).
		Update("status", subscriptions.StatusCancelled).Error; err != nil {
		return nil, err
	}

	s.log.Info("subscription cancelled", zap.String("subscription_id", sub.ID))
	sub.Status = subscriptions.StatusCancelled
	return &sub, nil
}
