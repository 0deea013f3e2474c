package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/domain/subscription"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/testutil"
	"github.com/youngchun/callforward/internal/types"
)

type AssignmentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service AssignmentService
	april   time.Time
}

func TestAssignmentService(t *testing.T) {
	suite.Run(t, new(AssignmentServiceSuite))
}

func (s *AssignmentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewAssignmentService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.april = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
}

func (s *AssignmentServiceSuite) bindings() []*binding.Binding {
	return s.GetStores().BindingRepo.All(s.GetContext())
}

func (s *AssignmentServiceSuite) TestAssignNewUserPurchasesOnce() {
	result, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().NoError(err)

	s.True(result.Purchased)
	s.False(result.Reused)
	s.NotEmpty(result.PhoneNumber)
	s.NotEmpty(result.ResourceID)
	s.Equal(1, s.GetFakes().Telephony.Purchases())

	rows := s.bindings()
	s.Require().Len(rows, 1)
	s.Equal("u1", rows[0].UserID)
	s.Equal(s.april, rows[0].ExpireAt)
	s.Equal(s.GetNow(), rows[0].StartAt)
	s.False(rows[0].IsReleased)
	s.Equal(result.ResourceID, rows[0].ResourceID)
}

func (s *AssignmentServiceSuite) TestAssignExtendsEarlierExpiry() {
	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().NoError(err)

	may := s.april.AddDate(0, 1, 0)
	result, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), may)
	s.Require().NoError(err)

	s.True(result.Reused)
	s.True(result.Extended)
	s.Equal(may, result.ExpireAt)
	s.Equal(1, s.GetFakes().Telephony.Purchases())

	rows := s.bindings()
	s.Require().Len(rows, 1)
	s.Equal(may, rows[0].ExpireAt)
}

func (s *AssignmentServiceSuite) TestAssignNeverShortensExpiry() {
	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().NoError(err)

	march15 := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	result, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), march15)
	s.Require().NoError(err)

	s.True(result.Reused)
	s.False(result.Extended)
	s.Equal(s.april, result.ExpireAt)
	s.Equal(s.april, s.bindings()[0].ExpireAt)
}

func (s *AssignmentServiceSuite) TestAssignIsIdempotent() {
	first, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().NoError(err)
	second, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().NoError(err)

	s.True(second.Reused)
	s.False(second.Extended)
	s.Equal(first.PhoneNumber, second.PhoneNumber)
	s.Equal(1, s.GetFakes().Telephony.Purchases())
	s.Len(s.bindings(), 1)
}

func (s *AssignmentServiceSuite) TestConcurrentAssignPurchasesOnce() {
	var (
		wg      sync.WaitGroup
		results = make([]*dto.AssignResult, 2)
		errs    = make([]error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
		}(i)
	}
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])
	s.Equal(1, s.GetFakes().Telephony.Purchases())
	s.Len(s.bindings(), 1)
	s.NotEqual(results[0].Purchased, results[1].Purchased)
	s.Equal(results[0].PhoneNumber, results[1].PhoneNumber)
}

func (s *AssignmentServiceSuite) TestNoNumbersAvailable() {
	s.GetFakes().Telephony.NoNumbers = true

	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrNoNumbersAvailable))
	s.True(ierr.IsProvider(err))
	s.Equal(0, s.GetFakes().Telephony.Purchases())
	s.Empty(s.bindings())
}

func (s *AssignmentServiceSuite) TestInvalidVoiceWebhookAbortsBeforeProvider() {
	s.GetConfig().Twilio.VoiceWebhookURL = "http://callforward.test/voice"

	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.IsConfiguration(err))
	s.Equal(0, s.GetFakes().Telephony.Searches())
	s.Empty(s.bindings())
}

func (s *AssignmentServiceSuite) TestPaddedVoiceWebhookAbortsBeforePurchase() {
	s.GetConfig().Twilio.VoiceWebhookURL = "  https://callforward.test/voice "

	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.IsConfiguration(err))
	s.Equal(0, s.GetFakes().Telephony.Purchases())
	s.Empty(s.bindings())
}

func (s *AssignmentServiceSuite) TestPurchaseFailureIsFatal() {
	s.GetFakes().Telephony.PurchaseErr = errors.New("twilio 500")

	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrProviderPurchaseFailed))
	s.Empty(s.bindings())
	s.Empty(s.GetFakes().Telephony.Releases())
}

func (s *AssignmentServiceSuite) TestLockFailureContinues() {
	s.GetStores().BindingRepo.FailLock(errors.New("lock timeout"))

	result, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().NoError(err)
	s.True(result.Purchased)
	s.Len(s.bindings(), 1)
}

func (s *AssignmentServiceSuite) TestLedgerFailureReleasesPurchasedNumber() {
	s.GetStores().BindingRepo.FailCreate(errors.New("insert failed"))

	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrLedgerWriteFailed))

	releases := s.GetFakes().Telephony.Releases()
	s.Require().Len(releases, 1)
	s.Empty(s.bindings())

	done, err := s.GetStores().ProcessedEventRepo.Exists(s.GetContext(), types.EventSourceCompensation, releases[0])
	s.Require().NoError(err)
	s.True(done)
	s.Equal(0.0, promtestutil.ToFloat64(s.GetMetrics().ReconciliationGaps.WithLabelValues("compensation")))
}

func (s *AssignmentServiceSuite) TestFailedCompensationIsAReconciliationGap() {
	s.GetStores().BindingRepo.FailCreate(errors.New("insert failed"))
	s.GetFakes().Telephony.SetReleaseErr(errors.New("twilio down"))

	_, err := s.service.Assign(s.GetContext(), "u1", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrLedgerWriteFailed))
	s.Equal(1, s.GetFakes().Telephony.Purchases())
	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().ReconciliationGaps.WithLabelValues("compensation")))
}

func (s *AssignmentServiceSuite) TestAssignRequiresUser() {
	_, err := s.service.Assign(s.GetContext(), "", s.GetNow(), s.april)
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AssignmentServiceSuite) TestAssignAllActive() {
	ctx := s.GetContext()
	repo := s.GetStores().SubscriptionRepo
	past := s.GetNow().Add(-time.Hour)

	subs := []*subscription.Subscription{
		{ID: "sub_1", Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u1"), CurrentPeriodEnd: &s.april},
		{ID: "sub_2", Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u2"), CurrentPeriodEnd: &s.april},
		{ID: "sub_3", Status: types.SubscriptionStatusPending, UserID: lo.ToPtr("u3"), CurrentPeriodEnd: &s.april},
		{ID: "sub_4", Status: types.SubscriptionStatusActive, CurrentPeriodEnd: &s.april},
		{ID: "sub_5", Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u5"), CurrentPeriodEnd: &past},
	}
	for _, sub := range subs {
		_, err := repo.Upsert(ctx, sub)
		s.Require().NoError(err)
	}

	// u2 already holds a number
	_, err := s.service.Assign(ctx, "u2", s.GetNow(), s.april)
	s.Require().NoError(err)

	resp, err := s.service.AssignAllActive(ctx)
	s.Require().NoError(err)
	s.Equal(2, resp.Processed)
	s.Equal(1, resp.Purchased)
	s.Equal(1, resp.Reused)
	s.Equal(0, resp.Failed)
	s.Equal(2, s.GetFakes().Telephony.Purchases())
}

func (s *AssignmentServiceSuite) TestAssignAllActiveIsolatesFailures() {
	ctx := s.GetContext()
	_, err := s.GetStores().SubscriptionRepo.Upsert(ctx, &subscription.Subscription{
		ID: "sub_1", Status: types.SubscriptionStatusActive, UserID: lo.ToPtr("u1"), CurrentPeriodEnd: &s.april,
	})
	s.Require().NoError(err)
	s.GetFakes().Telephony.NoNumbers = true

	resp, err := s.service.AssignAllActive(ctx)
	s.Require().NoError(err)
	s.Equal(1, resp.Processed)
	s.Equal(1, resp.Failed)
	s.Require().Len(resp.Failures, 1)
	s.Equal("u1", resp.Failures[0].UserID)
	s.Equal(1.0, promtestutil.ToFloat64(s.GetMetrics().Assignments.WithLabelValues(metrics.OutcomeFailed)))
}
