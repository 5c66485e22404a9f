package payments

import (
	"context"
	"testing"
	"time"

	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/subscriptions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleSuccessCreatesSubscription(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	payment := seedPendingPayment(t, db, user, plan, "cs_test_123")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testSettlement(db, now)

	require.NoError(t, s.Settle(context.Background(), "cs_test_123", OutcomeSuccess))

	var got billing.Payment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Equal(t, billing.StatusCompleted, got.Status)

	var sub subscriptions.Subscription
	require.NoError(t, db.First(&sub, "user_id = ?", user.ID).Error)
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Equal(t, now.AddDate(0, 0, plan.DurationDays), sub.EndDate.UTC())
	require.NotNil(t, sub.PaymentID)
	assert.Equal(t, payment.ID, *sub.PaymentID)
}

func TestSettleIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	seedPendingPayment(t, db, user, plan, "cs_test_dup")

	s := testSettlement(db, time.Now())
	require.NoError(t, s.Settle(context.Background(), "cs_test_dup", OutcomeSuccess))
	require.NoError(t, s.Settle(context.Background(), "cs_test_dup", OutcomeSuccess))

	var count int64
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "duplicate confirmation must not create a second subscription")
}

func TestSettleUnknownRefIsNoop(t *testing.T) {
	db := newTestDB(t)
	s := testSettlement(db, time.Now())

	require.NoError(t, s.Settle(context.Background(), "cs_never_seen", OutcomeSuccess))

	var count int64
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSettleFailureMarksPaymentFailed(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	payment := seedPendingPayment(t, db, user, plan, "cs_test_fail")

	s := testSettlement(db, time.Now())
	require.NoError(t, s.Settle(context.Background(), "cs_test_fail", OutcomeFailure))

	var got billing.Payment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Equal(t, billing.StatusFailed, got.Status)

	var count int64
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Count(&count).Error)
	assert.Zero(t, count, "a failed payment must never produce a subscription")
}

func TestSettlePendingOutcomeIsNoop(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	payment := seedPendingPayment(t, db, user, plan, "cs_test_wait")

	s := testSettlement(db, time.Now())
	require.NoError(t, s.Settle(context.Background(), "cs_test_wait", OutcomePending))

	var got billing.Payment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Equal(t, billing.StatusPending, got.Status)
}

func TestSettleMissingPlanRollsBack(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	payment := seedPendingPayment(t, db, user, plan, "cs_test_orphan")

	// Plan vanished between checkout and confirmation.
	require.NoError(t, db.Delete(plan).Error)

	s := testSettlement(db, time.Now())
	err := s.Settle(context.Background(), "cs_test_orphan", OutcomeSuccess)
	require.Error(t, err)

	// The status flip rolled back with the transaction, so the provider's
	// retry can still settle once the data is repaired.
	var got billing.Payment
	require.NoError(t, db.First(&got, "id = ?", payment.ID).Error)
	assert.Equal(t, billing.StatusPending, got.Status)
}

func TestSettleAlreadyFailedPaymentStaysFailed(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	payment := seedPendingPayment(t, db, user, plan, "cs_test_late")
	require.NoError(t, db.Model(payment).Update("status", billing.StatusFailed).Error)

	s := testSettlement(db, time.Now())
	require.NoError(t, s.Settle(context.Background(), "cs_test_late", OutcomeSuccess))

	var count int64
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Count(&count).Error)
	assert.Zero(t, count, "a success arriving after failure must not resurrect the payment")
}

func TestGrantUsesPlanDuration(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testSettlement(db, now)

	sub, err := s.Grant(context.Background(), user.ID, plan.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, plan.DurationDays), sub.EndDate.UTC())
	assert.Nil(t, sub.PaymentID, "admin grants carry no payment")

	var payments int64
	require.NoError(t, db.Model(&billing.Payment{}).Count(&payments).Error)
	assert.Zero(t, payments)
}

func TestGrantDurationOverride(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := testSettlement(db, now)

	days := 7
	sub, err := s.Grant(context.Background(), user.ID, plan.ID, &days)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 7), sub.EndDate.UTC())
}

func TestGrantUnknownUserOrPlan(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	s := testSettlement(db, time.Now())

	_, err := s.Grant(context.Background(), "no-such-user", plan.ID, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Grant(context.Background(), user.ID, "no-such-plan", nil)
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestCancelFlipsStatusKeepsRow(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	plan := seedPlan(t, db)
	s := testSettlement(db, time.Now())

	sub, err := s.Grant(context.Background(), user.ID, plan.ID, nil)
	require.NoError(t, err)

	cancelled, err := s.Cancel(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusCancelled, cancelled.Status)

	var got subscriptions.Subscription
	require.NoError(t, db.First(&got, "id = ?", sub.ID).Error)
	assert.Equal(t, subscriptions.StatusCancelled, got.Status)

	_, err = s.Cancel(context.Background(), "no-such-subscription")
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}
