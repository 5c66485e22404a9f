package payments

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAdapter struct {
	name     string
	checkout Checkout
	err      error

	gotPayment *billing.Payment
	gotPlan    *plans.Plan
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) CreateCheckout(ctx context.Context, payment *billing.Payment, plan *plans.Plan) (Checkout, error) {
	f.gotPayment = payment
	f.gotPlan = plan
	return f.checkout, f.err
}

func (f *fakeAdapter) ParseConfirmation(body []byte, header http.Header) (Confirmation, error) {
	return Confirmation{}, ErrIgnoredEvent
}

func TestInitiateSnapshotsPlanPrice(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)

	adapter := &fakeAdapter{
		name:     billing.ProviderStripe,
		checkout: Checkout{ProviderRef: "cs_abc", RedirectURL: "https://pay.example.com/cs_abc"},
	}
	m := NewSessionManager(db, zap.NewNop(), adapter)

	result, err := m.Initiate(context.Background(), user, plan.ID, billing.ProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, "cs_abc", result.ProviderRef)
	assert.Equal(t, "https://pay.example.com/cs_abc", result.RedirectURL)

	var payment billing.Payment
	require.NoError(t, db.First(&payment, "id = ?", result.PaymentID).Error)
	assert.Equal(t, plan.Price, payment.Amount)
	assert.Equal(t, plan.Currency, payment.Currency)
	assert.Equal(t, billing.StatusPending, payment.Status)
	require.NotNil(t, payment.ProviderPaymentID)
	assert.Equal(t, "cs_abc", *payment.ProviderPaymentID)
	assert.Equal(t, plan.ID, payment.Metadata.PlanID)
	assert.Equal(t, user.ID, payment.Metadata.UserID)

	// Later plan edits must not touch the snapshot.
	require.NoError(t, db.Model(plan).Update("price", 99.99).Error)
	require.NoError(t, db.First(&payment, "id = ?", result.PaymentID).Error)
	assert.Equal(t, 29.99, payment.Amount)
}

func TestInitiateProviderFailureMarksPaymentFailed(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)

	adapter := &fakeAdapter{name: billing.ProviderStripe, err: errors.New("upstream down")}
	m := NewSessionManager(db, zap.NewNop(), adapter)

	_, err := m.Initiate(context.Background(), user, plan.ID, billing.ProviderStripe)
	require.Error(t, err)

	var payment billing.Payment
	require.NoError(t, db.First(&payment, "user_id = ?", user.ID).Error)
	assert.Equal(t, billing.StatusFailed, payment.Status)
	assert.Nil(t, payment.ProviderPaymentID)
}

func TestInitiateUnsupportedProvider(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)

	m := NewSessionManager(db, zap.NewNop())
	_, err := m.Initiate(context.Background(), user, plan.ID, "paypal")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	var count int64
	require.NoError(t, db.Model(&billing.Payment{}).Count(&count).Error)
	assert.Zero(t, count, "no payment row for a provider we cannot dispatch to")
}

func TestInitiateUnknownOrInactivePlan(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)

	adapter := &fakeAdapter{name: billing.ProviderStripe, checkout: Checkout{ProviderRef: "cs_x"}}
	m := NewSessionManager(db, zap.NewNop(), adapter)

	_, err := m.Initiate(context.Background(), user, "no-such-plan", billing.ProviderStripe)
	assert.ErrorIs(t, err, ErrPlanNotFound)

	require.NoError(t, db.Model(plan).Update("is_active", false).Error)
	_, err = m.Initiate(context.Background(), user, plan.ID, billing.ProviderStripe)
	assert.ErrorIs(t, err, ErrPlanNotFound, "retired plans are not purchasable")
}

func TestProviderLookup(t *testing.T) {
	adapter := &fakeAdapter{name: billing.ProviderBTCPay}
	m := NewSessionManager(nil, zap.NewNop(), adapter)

	got, ok := m.Provider(billing.ProviderBTCPay)
	assert.True(t, ok)
	assert.Same(t, adapter, got.(*fakeAdapter))

	_, ok = m.Provider("paypal")
	assert.False(t, ok)
}
