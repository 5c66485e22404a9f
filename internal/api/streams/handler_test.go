package streams

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"supersports-api/database"
	"supersports-api/internal/app/http/middleware"
	"supersports-api/internal/domain/access"
	"supersports-api/internal/domain/catalog"
	"supersports-api/internal/domain/plans"
	"supersports-api/internal/domain/subscriptions"
	"supersports-api/internal/domain/users"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

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

func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(db, zap.NewNop(), access.NewEvaluator(db))

	r := gin.New()
	optional := middleware.OptionalAuth(testJWTSecret)
	r.GET("/api/streams/season/:seasonId", optional, h.SeasonStreams)
	r.GET("/api/streams/:streamId", optional, h.Get)
	r.PUT("/api/streams/:streamId", h.Update)
	return r
}

func signToken(t *testing.T, u *users.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

type fixture struct {
	season     *catalog.Season
	freeStream *catalog.Stream
	paidStream *catalog.Stream
	plan       *plans.Plan
}

func seedCatalog(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	season := &catalog.Season{Name: "Spring 2026", Slug: "spring-2026", IsActive: true}
	require.NoError(t, db.Create(season).Error)

	freeURL := "https://cdn.example.com/free.m3u8"
	free := &catalog.Stream{Title: "Free Match", StreamURL: &freeURL, SeasonID: season.ID, IsFree: true}
	require.NoError(t, db.Create(free).Error)

	paidURL := "https://cdn.example.com/final.m3u8"
	paid := &catalog.Stream{Title: "Grand Final", StreamURL: &paidURL, SeasonID: season.ID}
	require.NoError(t, db.Create(paid).Error)

	plan := &plans.Plan{Name: "Season Pass", Type: plans.TypeSeasonal, Price: 49.99, Currency: "USD", DurationDays: 90, SeasonID: &season.ID, IsActive: true}
	require.NoError(t, db.Create(plan).Error)

	return fixture{season: season, freeStream: free, paidStream: paid, plan: plan}
}

func subscribe(t *testing.T, db *gorm.DB, user *users.User, plan *plans.Plan) {
	t.Helper()
	sub := &subscriptions.Subscription{
		UserID: user.ID, PlanID: plan.ID, Status: subscriptions.StatusActive,
		StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 30),
	}
	require.NoError(t, db.Create(sub).Error)
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetFreeStreamAnonymous(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)

	w := get(r, "/api/streams/"+f.freeStream.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got catalog.Stream
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.StreamURL)
	assert.Equal(t, *f.freeStream.StreamURL, *got.StreamURL)
}

func TestGetPaidStreamAnonymous(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)

	w := get(r, "/api/streams/"+f.paidStream.ID, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPaidStreamWithoutSubscription(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)
	user := &users.User{Email: "viewer@example.com", Role: users.RoleUser}
	require.NoError(t, db.Create(user).Error)

	w := get(r, "/api/streams/"+f.paidStream.ID, signToken(t, user))
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, f.season.ID, body["season_id"], "the refusal names the season to subscribe to")
}

func TestGetPaidStreamWithSubscriptionBumpsViews(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)
	user := &users.User{Email: "viewer@example.com", Role: users.RoleUser}
	require.NoError(t, db.Create(user).Error)
	subscribe(t, db, user, f.plan)

	w := get(r, "/api/streams/"+f.paidStream.ID, signToken(t, user))
	require.Equal(t, http.StatusOK, w.Code)

	var got catalog.Stream
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.StreamURL)

	var stored catalog.Stream
	require.NoError(t, db.First(&stored, "id = ?", f.paidStream.ID).Error)
	assert.Equal(t, int64(1), stored.ViewCount)
}

func TestGetPaidStreamTamperedToken(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)

	// A forged token downgrades to anonymous on optional-auth routes.
	w := get(r, "/api/streams/"+f.paidStream.ID, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSeasonStreamsWithholdsURLs(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)

	w := get(r, "/api/streams/season/"+f.season.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Streams   []streamView `json:"streams"`
		HasAccess bool         `json:"hasAccess"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.HasAccess)
	require.Len(t, body.Streams, 2)

	for _, s := range body.Streams {
		if s.IsFree {
			assert.NotNil(t, s.StreamURL, "free streams keep their URL for everyone")
			assert.False(t, s.RequiresSubscription)
		} else {
			assert.Nil(t, s.StreamURL, "paid URLs are withheld from non-subscribers")
			assert.True(t, s.RequiresSubscription)
		}
	}
}

func TestSeasonStreamsWithAccess(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)
	user := &users.User{Email: "viewer@example.com", Role: users.RoleUser}
	require.NoError(t, db.Create(user).Error)
	subscribe(t, db, user, f.plan)

	w := get(r, "/api/streams/season/"+f.season.ID, signToken(t, user))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Streams   []streamView `json:"streams"`
		HasAccess bool         `json:"hasAccess"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.HasAccess)
	for _, s := range body.Streams {
		assert.NotNil(t, s.StreamURL)
	}
}

func putJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateStreamSeasonMustExist(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)

	w := putJSON(r, "/api/streams/"+f.paidStream.ID, gin.H{"season_id": "no-such-season"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var stored catalog.Stream
	require.NoError(t, db.First(&stored, "id = ?", f.paidStream.ID).Error)
	assert.Equal(t, f.season.ID, stored.SeasonID)
}

func TestUpdateStreamMovesToExistingSeason(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)
	f := seedCatalog(t, db)
	other := &catalog.Season{Name: "Autumn 2026", Slug: "autumn-2026", IsActive: true}
	require.NoError(t, db.Create(other).Error)

	w := putJSON(r, "/api/streams/"+f.paidStream.ID, gin.H{"season_id": other.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var stored catalog.Stream
	require.NoError(t, db.First(&stored, "id = ?", f.paidStream.ID).Error)
	assert.Equal(t, other.ID, stored.SeasonID)
}

func TestGetUnknownStream(t *testing.T) {
	db := newTestDB(t)
	r := newTestRouter(t, db)

	w := get(r, "/api/streams/no-such-stream", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
