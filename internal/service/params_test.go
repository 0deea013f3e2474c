package service

import (
	"github.com/youngchun/callforward/internal/testutil"
)

// newTestServiceParams wires ServiceParams to the in-memory stores and fakes of the suite
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	fakes := s.GetFakes()
	return ServiceParams{
		Logger:                s.GetLogger(),
		Config:                s.GetConfig(),
		DB:                    s.GetDB(),
		Sentry:                s.GetSentry(),
		Metrics:               s.GetMetrics(),
		SubscriptionRepo:      stores.SubscriptionRepo,
		BindingRepo:           stores.BindingRepo,
		ProcessedEventRepo:    stores.ProcessedEventRepo,
		CallEventRepo:         stores.CallEventRepo,
		LeaveRepo:             stores.LeaveRepo,
		PushSubscriptionRepo:  stores.PushSubscriptionRepo,
		MessageAttemptRepo:    stores.MessageAttemptRepo,
		UserSettingsRepo:      stores.UserSettingsRepo,
		Telephony:             fakes.Telephony,
		Stripe:                fakes.Stripe,
		PushSender:            fakes.PushSender,
		NotificationPublisher: fakes.Notification,
		Now:                   s.Clock(),
	}
}
