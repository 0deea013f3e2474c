package api

import (
	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api/cron"
	v1 "github.com/youngchun/callforward/internal/api/v1"
	"github.com/youngchun/callforward/internal/cache"
	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/rest/middleware"
	"github.com/youngchun/callforward/internal/telephony"
)

type Handlers struct {
	Health *v1.HealthHandler
	Stripe *v1.StripeHandler
	Number *v1.NumberHandler
	Twilio *v1.TwilioHandler
	Leave  *v1.LeaveHandler
	Push   *v1.PushHandler
	User   *v1.UserSettingsHandler

	CronNumber *cron.NumberHandler
}

// RouterParams carries the infrastructure the middlewares need
type RouterParams struct {
	Config             *config.Configuration
	Logger             *logger.Logger
	Metrics            *metrics.Collector
	Cache              cache.Cache
	SignatureValidator telephony.SignatureValidator
}

func NewRouter(handlers Handlers, params RouterParams) *gin.Engine {
	cfg := params.Config
	log := params.Logger

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.MetricsMiddleware(params.Metrics),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", handlers.Health.Health)
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(params.Metrics.Handler()))
	}

	v1Group := router.Group("/v1")

	webhooks := v1Group.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Stripe.HandleWebhook)
	}

	checkout := v1Group.Group("/checkout")
	{
		checkout.POST("/sessions", handlers.Stripe.CreateCheckoutSession)
	}

	admin := v1Group.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(cfg, log))
	{
		admin.POST("/numbers/assign", handlers.Number.AssignAll)
	}

	twilio := v1Group.Group("/twilio")
	twilio.Use(middleware.TwilioSignatureMiddleware(cfg, params.SignatureValidator, log))
	{
		twilio.POST("/voice", handlers.Twilio.Voice)
		twilio.POST("/sms-status", handlers.Twilio.SMSStatus)
	}

	leave := v1Group.Group("/leave")
	{
		leave.GET("/messages/:id", middleware.AdminKeyMiddleware(cfg, log), handlers.Leave.GetMessage)
		leave.GET("/:token", handlers.Leave.ValidateLink)
		leave.POST("/:token",
			middleware.RateLimitMiddleware("leave_submit", cfg.Leave.RateLimit, params.Cache, log),
			handlers.Leave.SubmitMessage,
		)
	}

	push := v1Group.Group("/push")
	{
		push.POST("/subscriptions", handlers.Push.Subscribe)
		push.POST("/test", middleware.InternalTokenMiddleware(cfg, log), handlers.Push.SendTest)
	}

	users := v1Group.Group("/users/:user_id")
	{
		users.GET("/travel-settings", handlers.User.GetTravelSettings)
		users.PUT("/travel-settings", handlers.User.SaveTravelSettings)
		users.GET("/prepare", handlers.User.GetPrepareStatus)
		users.POST("/prepare/complete", handlers.User.CompletePrepare)
	}

	// Cron routes
	cronGroup := v1Group.Group("/cron")
	cronGroup.Use(middleware.CronSecretMiddleware(cfg, log))
	{
		numbers := cronGroup.Group("/numbers")
		numbers.GET("/release-expired", handlers.CronNumber.ReleaseExpired)
		numbers.POST("/release-expired", handlers.CronNumber.ReleaseExpired)
	}

	return router
}
