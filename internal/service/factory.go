package service

import (
	"time"

	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/domain/callevent"
	"github.com/youngchun/callforward/internal/domain/leave"
	"github.com/youngchun/callforward/internal/domain/messageattempt"
	"github.com/youngchun/callforward/internal/domain/processedevent"
	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	"github.com/youngchun/callforward/internal/domain/subscription"
	"github.com/youngchun/callforward/internal/domain/usersettings"
	stripeintegration "github.com/youngchun/callforward/internal/integration/stripe"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/notification"
	"github.com/youngchun/callforward/internal/postgres"
	"github.com/youngchun/callforward/internal/push"
	"github.com/youngchun/callforward/internal/sentry"
	"github.com/youngchun/callforward/internal/telephony"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	DB      postgres.IClient
	Sentry  *sentry.Service
	Metrics *metrics.Collector

	// Repositories
	SubscriptionRepo     subscription.Repository
	BindingRepo          binding.Repository
	ProcessedEventRepo   processedevent.Repository
	CallEventRepo        callevent.Repository
	LeaveRepo            leave.Repository
	PushSubscriptionRepo pushsubscription.Repository
	MessageAttemptRepo   messageattempt.Repository
	UserSettingsRepo     usersettings.Repository

	// Providers
	Telephony  telephony.Provider
	Stripe     stripeintegration.Gateway
	PushSender push.Sender

	// Publishers
	NotificationPublisher notification.Publisher

	// Now is the service clock, time.Now when nil
	Now func() time.Time
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	sentry *sentry.Service,
	metrics *metrics.Collector,
	subscriptionRepo subscription.Repository,
	bindingRepo binding.Repository,
	processedEventRepo processedevent.Repository,
	callEventRepo callevent.Repository,
	leaveRepo leave.Repository,
	pushSubscriptionRepo pushsubscription.Repository,
	messageAttemptRepo messageattempt.Repository,
	userSettingsRepo usersettings.Repository,
	telephonyProvider telephony.Provider,
	stripeGateway stripeintegration.Gateway,
	pushSender push.Sender,
	notificationPublisher notification.Publisher,
) ServiceParams {
	return ServiceParams{
		Logger:                logger,
		Config:                config,
		DB:                    db,
		Sentry:                sentry,
		Metrics:               metrics,
		SubscriptionRepo:      subscriptionRepo,
		BindingRepo:           bindingRepo,
		ProcessedEventRepo:    processedEventRepo,
		CallEventRepo:         callEventRepo,
		LeaveRepo:             leaveRepo,
		PushSubscriptionRepo:  pushSubscriptionRepo,
		MessageAttemptRepo:    messageAttemptRepo,
		UserSettingsRepo:      userSettingsRepo,
		Telephony:             telephonyProvider,
		Stripe:                stripeGateway,
		PushSender:            pushSender,
		NotificationPublisher: notificationPublisher,
		Now:                   time.Now,
	}
}

func (p ServiceParams) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}
