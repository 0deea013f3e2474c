package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api"
	"github.com/youngchun/callforward/internal/api/cron"
	v1 "github.com/youngchun/callforward/internal/api/v1"
	"github.com/youngchun/callforward/internal/cache"
	"github.com/youngchun/callforward/internal/config"
	stripeintegration "github.com/youngchun/callforward/internal/integration/stripe"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/notification"
	"github.com/youngchun/callforward/internal/postgres"
	"github.com/youngchun/callforward/internal/pubsub"
	"github.com/youngchun/callforward/internal/pubsub/memory"
	pubsubRouter "github.com/youngchun/callforward/internal/pubsub/router"
	"github.com/youngchun/callforward/internal/push"
	"github.com/youngchun/callforward/internal/repository"
	"github.com/youngchun/callforward/internal/sentry"
	"github.com/youngchun/callforward/internal/service"
	"github.com/youngchun/callforward/internal/telephony"
	"github.com/youngchun/callforward/internal/types"
	"github.com/youngchun/callforward/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			metrics.NewCollector,

			// Cache
			cache.NewInMemoryCache,

			// Providers
			telephony.NewTwilioProvider,
			provideSignatureValidator,
			stripeintegration.NewClient,
			push.NewSender,

			// Repositories
			repository.NewSubscriptionRepository,
			repository.NewBindingRepository,
			repository.NewProcessedEventRepository,
			repository.NewCallEventRepository,
			repository.NewLeaveRepository,
			repository.NewPushSubscriptionRepository,
			repository.NewMessageAttemptRepository,
			repository.NewUserSettingsRepository,

			// PubSub
			memory.NewPubSub,
			pubsubRouter.NewRouter,
			notification.NewPublisher,
		),
		sentry.Module(),
		postgres.Module(),
		fx.Decorate(postgres.NewSentryClient),
	)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewSubscriptionService,
			service.NewAssignmentService,
			service.NewSweepService,
			service.NewStripeWebhookService,
			service.NewCheckoutService,
			service.NewVoiceService,
			service.NewLeaveService,
			service.NewPushService,
			service.NewNotificationService,
			service.NewUserSettingsService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideNotificationHandler,
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			validator.NewValidator,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideSignatureValidator(cfg *config.Configuration) telephony.SignatureValidator {
	return telephony.NewSignatureValidator(cfg.Twilio.AuthToken)
}

func provideNotificationHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	notificationService service.NotificationService,
	logger *logger.Logger,
	sentry *sentry.Service,
) notification.Handler {
	return notification.NewHandler(pubSub, cfg, notificationService, logger, sentry)
}

func provideHandlers(
	logger *logger.Logger,
	stripeWebhookService service.StripeWebhookService,
	checkoutService service.CheckoutService,
	assignmentService service.AssignmentService,
	sweepService service.SweepService,
	voiceService service.VoiceService,
	notificationService service.NotificationService,
	leaveService service.LeaveService,
	pushService service.PushService,
	userSettingsService service.UserSettingsService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(),
		Stripe:     v1.NewStripeHandler(stripeWebhookService, checkoutService, logger),
		Number:     v1.NewNumberHandler(assignmentService, logger),
		Twilio:     v1.NewTwilioHandler(voiceService, notificationService, logger),
		Leave:      v1.NewLeaveHandler(leaveService, logger),
		Push:       v1.NewPushHandler(pushService, logger),
		User:       v1.NewUserSettingsHandler(userSettingsService, logger),
		CronNumber: cron.NewNumberHandler(sweepService, logger),
	}
}

func provideRouter(
	handlers api.Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	collector *metrics.Collector,
	c cache.Cache,
	signatureValidator telephony.SignatureValidator,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, api.RouterParams{
		Config:             cfg,
		Logger:             logger,
		Metrics:            collector,
		Cache:              c,
		SignatureValidator: signatureValidator,
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	notificationHandler notification.Handler,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		// hooks start in order, the router must subscribe before calls arrive
		startMessageRouter(lc, router, notificationHandler, log)
		startAPIServer(lc, r, cfg, log)
	case types.ModeAWSLambdaAPI:
		startMessageRouter(lc, router, notificationHandler, log)
		startAWSLambdaAPI(lc, r, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

// startAWSLambdaAPI hands the engine to the lambda runtime once the message router is up.
// lambda.Start never returns.
func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine, log *logger.Logger) {
	ginLambda := ginadapter.New(r)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting AWS Lambda API handler")
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	notificationHandler notification.Handler,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	notificationHandler.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()

			select {
			case <-router.Running():
				logger.Info("message router running")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			return router.Close()
		},
	})
}
