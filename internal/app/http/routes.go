package routes

import (
	"supersports-api/config"
	adminapi "supersports-api/internal/api/admin"
	authapi "supersports-api/internal/api/auth"
	plansapi "supersports-api/internal/api/plans"
	seasonsapi "supersports-api/internal/api/seasons"
	streamsapi "supersports-api/internal/api/streams"
	subscriptionsapi "supersports-api/internal/api/subscriptions"
	"supersports-api/internal/app/http/middleware"
	"supersports-api/internal/domain/access"
	"supersports-api/internal/domain/users"
	"supersports-api/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterRoutes builds every component against the injected store handle
// and mounts the HTTP surface.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, log *zap.Logger) {
	eval := access.NewEvaluator(db)

	stripeAdapter := &payments.StripeAdapter{
		SecretKey:     config.STRIPE_SECRET_KEY,
		WebhookSecret: config.STRIPE_WEBHOOK_SECRET,
		FrontendURL:   config.FRONTEND_URL,
	}
	btcpayAdapter := payments.NewBTCPayAdapter(
		config.BTCPAY_URL, config.BTCPAY_API_KEY, config.BTCPAY_STORE_ID,
		config.BTCPAY_WEBHOOK_SECRET, config.FRONTEND_URL, log)
	nowPaymentsAdapter := payments.NewNowPaymentsAdapter(
		config.NOWPAYMENTS_API_KEY, config.NOWPAYMENTS_IPN_SECRET,
		config.FRONTEND_URL, log)

	sessions := payments.NewSessionManager(db, log, stripeAdapter, btcpayAdapter, nowPaymentsAdapter)
	settlement := payments.NewSettlement(db, log)

	authH := authapi.NewHandler(db, log, config.JWT_SECRET)
	authH.GoogleClientID = config.GOOGLE_CLIENT_ID
	authH.GoogleClientSecret = config.GOOGLE_CLIENT_SECRET
	authH.GoogleRedirectURL = config.GOOGLE_REDIRECT_URL
	authH.GoogleFrontendRedirect = config.GOOGLE_FRONTEND_REDIRECT

	seasonsH := seasonsapi.NewHandler(db, log, eval)
	streamsH := streamsapi.NewHandler(db, log, eval)
	plansH := plansapi.NewHandler(db, log)
	subsH := subscriptionsapi.NewHandler(db, log, eval, sessions, settlement)
	adminH := adminapi.NewHandler(db, log)

	requireAuth := middleware.AuthMiddleware(config.JWT_SECRET)
	optionalAuth := middleware.OptionalAuth(config.JWT_SECRET)
	requireAdmin := middleware.RequireRole(users.RoleAdmin)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Webhooks see the raw body; no sanitizing, no auth middleware. The
	// signature is the authentication.
	api.POST("/subscriptions/webhook/card", subsH.CardWebhook)
	api.POST("/subscriptions/webhook/crypto/:provider", subsH.CryptoWebhook)

	// Public, sanitized writes
	public := api.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/auth/register", authH.Register)
	public.POST("/auth/login", authH.Login)

	api.GET("/auth/google", authH.GoogleStart)
	api.GET("/auth/google/callback", authH.GoogleCallback)

	// Public catalog
	api.GET("/seasons", seasonsH.List)
	api.GET("/seasons/:slug", optionalAuth, seasonsH.GetBySlug)
	api.GET("/streams", streamsH.List)
	api.GET("/streams/live", streamsH.Live)
	api.GET("/streams/upcoming", streamsH.Upcoming)
	api.GET("/streams/season/:seasonId", optionalAuth, streamsH.SeasonStreams)
	api.GET("/streams/:streamId", optionalAuth, streamsH.Get)
	api.GET("/plans", plansH.List)
	api.GET("/plans/season/:seasonId", plansH.SeasonPlans)

	// Authenticated
	auth := api.Group("/")
	auth.Use(requireAuth)
	auth.GET("/auth/profile", authH.GetProfile)
	auth.PUT("/auth/profile", authH.UpdateProfile)
	auth.GET("/subscriptions/my", subsH.My)
	auth.GET("/subscriptions/access/:seasonId", subsH.CheckAccess)
	auth.POST("/subscriptions/pay/card", subsH.PayCard)
	auth.POST("/subscriptions/pay/crypto", subsH.PayCrypto)
	auth.GET("/subscriptions/payment/:paymentId", subsH.GetPayment)
	auth.POST("/subscriptions/payment/:paymentId/verify", subsH.VerifyPayment)

	// Admin
	admin := api.Group("/")
	admin.Use(requireAuth, requireAdmin)
	admin.GET("/stats", adminH.Stats)
	admin.GET("/auth/users", authH.ListUsers)
	admin.PUT("/auth/users/:userId/role", authH.UpdateUserRole)
	admin.DELETE("/auth/users/:userId", authH.DeleteUser)

	admin.GET("/seasons/admin/all", seasonsH.ListAll)
	admin.POST("/seasons", seasonsH.Create)
	admin.PUT("/seasons/:seasonId", seasonsH.Update)
	admin.DELETE("/seasons/:seasonId", seasonsH.Delete)

	admin.GET("/streams/admin/all", streamsH.ListAll)
	admin.POST("/streams", streamsH.Create)
	admin.PUT("/streams/:streamId", streamsH.Update)
	admin.DELETE("/streams/:streamId", streamsH.Delete)
	admin.PATCH("/streams/:streamId/live", streamsH.ToggleLive)

	admin.GET("/plans/admin/all", plansH.ListAll)
	admin.POST("/plans", plansH.Create)
	admin.PUT("/plans/:planId", plansH.Update)
	admin.DELETE("/plans/:planId", plansH.Delete)

	admin.GET("/subscriptions/admin/all", subsH.ListAllSubscriptions)
	admin.GET("/subscriptions/admin/payments", subsH.ListAllPayments)
	admin.POST("/subscriptions/admin/grant", subsH.Grant)
	admin.DELETE("/subscriptions/admin/:subscriptionId", subsH.CancelSubscription)
}
