package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/sentry"
	"github.com/youngchun/callforward/internal/types"
	"github.com/youngchun/callforward/internal/validator"
)

// Stores holds all the in-memory repositories for testing
type Stores struct {
	SubscriptionRepo     *InMemorySubscriptionStore
	BindingRepo          *InMemoryBindingStore
	ProcessedEventRepo   *InMemoryProcessedEventStore
	CallEventRepo        *InMemoryCallEventStore
	LeaveRepo            *InMemoryLeaveStore
	PushSubscriptionRepo *InMemoryPushSubscriptionStore
	MessageAttemptRepo   *InMemoryMessageAttemptStore
	UserSettingsRepo     *InMemoryUserSettingsStore
}

// Fakes holds the stand-ins for external providers
type Fakes struct {
	Telephony    *FakeTelephonyProvider
	PushSender   *FakePushSender
	Stripe       *FakeStripeGateway
	Notification *FakeNotificationPublisher
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	fakes   Fakes
	db      *MockPostgresClient
	logger  *logger.Logger
	config  *config.Configuration
	sentry  *sentry.Service
	metrics *metrics.Collector
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = NewTestConfig()
	s.sentry = sentry.NewSentryService(s.config, s.logger)
	s.metrics = metrics.NewCollector()
	s.now = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

// NewTestConfig returns a configuration with every outbound integration pointed at fakes
func NewTestConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Twilio.VoiceWebhookURL = "https://callforward.test/v1/twilio/voice"
	cfg.Twilio.MessagingServiceSID = "MG00000000000000000000000000000000"
	cfg.Twilio.AutoReply = "The person you are calling is abroad. We sent you a text message."
	cfg.Leave.PublicBaseURL = "https://callforward.test"
	cfg.Push.InternalToken = "internal-test-token"
	cfg.Stripe.PriceID = "price_test"
	return cfg
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		SubscriptionRepo:     NewInMemorySubscriptionStore(),
		BindingRepo:          NewInMemoryBindingStore(),
		ProcessedEventRepo:   NewInMemoryProcessedEventStore(),
		CallEventRepo:        NewInMemoryCallEventStore(),
		LeaveRepo:            NewInMemoryLeaveStore(),
		PushSubscriptionRepo: NewInMemoryPushSubscriptionStore(),
		MessageAttemptRepo:   NewInMemoryMessageAttemptStore(),
		UserSettingsRepo:     NewInMemoryUserSettingsStore(),
	}
	s.fakes = Fakes{
		Telephony:    NewFakeTelephonyProvider(),
		PushSender:   NewFakePushSender(),
		Stripe:       NewFakeStripeGateway(),
		Notification: NewFakeNotificationPublisher(),
	}
	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.SubscriptionRepo.Clear()
	s.stores.BindingRepo.Clear()
	s.stores.ProcessedEventRepo.Clear()
	s.stores.CallEventRepo.Clear()
	s.stores.LeaveRepo.Clear()
	s.stores.PushSubscriptionRepo.Clear()
	s.stores.MessageAttemptRepo.Clear()
	s.stores.UserSettingsRepo.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetFakes returns the fake providers
func (s *BaseServiceTestSuite) GetFakes() Fakes {
	return s.fakes
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetMetrics() *metrics.Collector {
	return s.metrics
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// SetNow moves the test clock
func (s *BaseServiceTestSuite) SetNow(now time.Time) {
	s.now = now.UTC()
}

// Clock returns a clock that follows SetNow
func (s *BaseServiceTestSuite) Clock() func() time.Time {
	return func() time.Time { return s.now }
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
