package payments

import (
	"testing"
	"time"

	"supersports-api/database"
	"supersports-api/internal/domain/billing"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/users"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *users.User {
	t.Helper()
	u := &users.User{Email: "buyer@example.com", Name: "Buyer", Role: users.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedPlan(t *testing.T, db *gorm.DB) *plans.Plan {
	t.Helper()
	p := &plans.Plan{
		Name: "Monthly Pass", Type: plans.TypeMonthly, Price: 29.99,
		Currency: "USD", DurationDays: 30, IsActive: true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedPendingPayment(t *testing.T, db *gorm.DB, user *users.User, plan *plans.Plan, providerRef string) *billing.Payment {
	t.Helper()
	p := &billing.Payment{
		UserID:            user.ID,
		Amount:            plan.Price,
		Currency:          plan.Currency,
		Provider:          billing.ProviderStripe,
		ProviderPaymentID: &providerRef,
		Status:            billing.StatusPending,
		Metadata:          billing.PaymentMetadata{PlanID: plan.ID, UserID: user.ID},
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func testSettlement(db *gorm.DB, at time.Time) *Settlement {
	return &Settlement{db: db, log: zap.NewNop(), now: func() time.Time { return at }}
}
