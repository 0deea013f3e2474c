package service

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/domain/subscription"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/testutil"
	"github.com/youngchun/callforward/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSubscriptionService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *SubscriptionServiceSuite) TestApplyEventMergesUserAndPeriod() {
	end := s.GetNow().AddDate(0, 1, 0)

	sub, err := s.service.ApplyEvent(s.GetContext(), &subscription.LifecycleEvent{
		EventID:        "evt_1",
		EventType:      "checkout.session.completed",
		SubscriptionID: "sub_1",
		CustomerID:     "cus_1",
		Status:         types.SubscriptionStatusPending,
		UserID:         "u1",
	})
	s.Require().NoError(err)
	s.Equal("u1", sub.GetUserID())
	s.False(sub.IsEntitled(s.GetNow()))

	sub, err = s.service.ApplyEvent(s.GetContext(), &subscription.LifecycleEvent{
		EventID:        "evt_2",
		EventType:      "invoice.paid",
		SubscriptionID: "sub_1",
		CustomerID:     "cus_1",
		Status:         types.SubscriptionStatusActive,
		PeriodStart:    lo.ToPtr(s.GetNow()),
		PeriodEnd:      lo.ToPtr(end),
	})
	s.Require().NoError(err)
	s.Equal("u1", sub.GetUserID())
	s.True(sub.IsEntitled(s.GetNow()))

	entitled, err := s.service.ListEntitled(s.GetContext())
	s.Require().NoError(err)
	s.Len(entitled, 1)

	s.SetNow(end.Add(time.Second))
	entitled, err = s.service.ListEntitled(s.GetContext())
	s.Require().NoError(err)
	s.Empty(entitled)
}

func (s *SubscriptionServiceSuite) TestApplyEventValidates() {
	_, err := s.service.ApplyEvent(s.GetContext(), &subscription.LifecycleEvent{
		EventID: "evt_1",
		Status:  types.SubscriptionStatusActive,
	})
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestApplyEventStoreFailure() {
	s.GetStores().SubscriptionRepo.FailUpsert(errors.New("connection reset"))

	_, err := s.service.ApplyEvent(s.GetContext(), &subscription.LifecycleEvent{
		EventID:        "evt_1",
		SubscriptionID: "sub_1",
		Status:         types.SubscriptionStatusActive,
	})
	s.True(ierr.IsDatabase(err))
}
