package payments

import (
	"context"
	"errors"
	"fmt"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/users"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitiateResult is what the client needs to continue a checkout: the local
// payment id to poll, the provider's reference, and where to redirect.
type InitiateResult struct {
	PaymentID   string `json:"payment_id"`
	ProviderRef string `json:"invoice_id"`
	RedirectURL string `json:"payment_url"`
}

// SessionManager creates provider-agnostic payment intents and dispatches
// them to the matching adapter.
type SessionManager struct {
	db        *gorm.DB
	providers map[string]Adapter
	log       *zap.Logger
}

func NewSessionManager(db *gorm.DB, log *zap.Logger, adapters ...Adapter) *SessionManager {
	providers := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		providers[a.Name()] = a
	}
	return &SessionManager{db: db, providers: providers, log: log}
}

// Provider returns the adapter registered under name.
func (m *SessionManager) Provider(name string) (Adapter, bool) {
	a, ok := m.providers[name]
	return a, ok
}

// Initiate creates a pending payment for the plan and opens a checkout at the
// provider. Price and currency are snapshotted from the plan at this instant;
// later plan edits do not affect an in-flight payment. A subscription is
// never created here.
func (m *SessionManager) Initiate(ctx context.Context, user *users.User, planID, providerName string) (InitiateResult, error) {
	adapter, ok := m.providers[providerName]
	if !ok {
		return InitiateResult{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, providerName)
	}

	var plan plans.Plan
	if err := m.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", planID, true).
		First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InitiateResult{}, ErrPlanNotFound
		}
		return InitiateResult{}, err
	}

	payment := billing.Payment{
		UserID:   user.ID,
		Amount:   plan.Price,
		Currency: plan.Currency,
		Provider: providerName,
		Status:   billing.StatusPending,
		Metadata: billing.PaymentMetadata{PlanID: plan.ID, UserID: user.ID},
	}
	if err := m.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return InitiateResult{}, err
	}

	checkout, err := adapter.CreateCheckout(ctx, &payment, &plan)
	if err != nil {
		// The external call failed; the row moves to failed and the client
		// may retry with a fresh payment. Nothing here can ever produce a
		// subscription.
		if dbErr := m.db.WithContext(ctx).Model(&billing.Payment{}).
			Where("id = ? AND status = ?", payment.ID, billing.StatusPending).
			Update("status", billing.StatusFailed).Error; dbErr != nil {
			m.log.Error("failed to mark payment failed after provider error",
				zap.String("payment_id", payment.ID), zap.Error(dbErr))
		}
		m.log.Error("checkout creation failed",
			zap.String("payment_id", payment.ID),
			zap.String("provider", providerName),
			zap.Error(err))
		return InitiateResult{}, err
	}

	if err := m.db.WithContext(ctx).Model(&billing.Payment{}).
		Where("id = ?", payment.ID).
		Update("provider_payment_id", checkout.ProviderRef).Error; err != nil {
		return InitiateResult{}, err
	}

	m.log.Info("payment session created",
		zap.String("payment_id", payment.ID),
		zap.String("provider", providerName),
		zap.String("provider_ref", checkout.ProviderRef),
		zap.String("plan_id", plan.ID))

	return InitiateResult{
		PaymentID:   payment.ID,
		ProviderRef: checkout.ProviderRef,
		RedirectURL: checkout.RedirectURL,
	}, nil
}
