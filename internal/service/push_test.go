package service

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/httpclient"
	"github.com/youngchun/callforward/internal/push"
	"github.com/youngchun/callforward/internal/testutil"
	"github.com/youngchun/callforward/internal/types"
)

type PushServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PushService
}

func TestPushService(t *testing.T) {
	suite.Run(t, new(PushServiceSuite))
}

func (s *PushServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPushService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *PushServiceSuite) subscribe(userID, endpoint string) {
	s.SetNow(s.GetNow().Add(time.Minute))
	resp, err := s.service.Subscribe(s.GetContext(), dto.CreatePushSubscriptionRequest{
		Endpoint: endpoint,
		Keys:     dto.PushSubscriptionKeys{P256dh: "p256dh", Auth: "auth"},
		UserID:   userID,
	})
	s.Require().NoError(err)
	s.Require().True(resp.Success)
}

func (s *PushServiceSuite) TestSubscribeIsIdempotentPerEndpoint() {
	req := dto.CreatePushSubscriptionRequest{
		Endpoint: "https://push.example.com/1",
		Keys:     dto.PushSubscriptionKeys{P256dh: "p256dh", Auth: "auth"},
	}

	resp, err := s.service.Subscribe(s.GetContext(), req)
	s.Require().NoError(err)
	s.True(resp.Created)

	resp, err = s.service.Subscribe(s.GetContext(), req)
	s.Require().NoError(err)
	s.True(resp.Success)
	s.False(resp.Created)
}

func (s *PushServiceSuite) TestSubscribeValidates() {
	_, err := s.service.Subscribe(s.GetContext(), dto.CreatePushSubscriptionRequest{
		Endpoint: "https://push.example.com/1",
	})
	s.True(ierr.IsValidation(err))
}

func (s *PushServiceSuite) TestNotifyUserDropsGoneSubscriptions() {
	s.subscribe("u1", "https://push.example.com/live")
	s.subscribe("u1", "https://push.example.com/gone")
	s.subscribe("u1", "https://push.example.com/flaky")
	s.subscribe("u2", "https://push.example.com/other")

	fakes := s.GetFakes()
	fakes.PushSender.Errors["https://push.example.com/gone"] = httpclient.NewError(http.StatusGone, nil)
	fakes.PushSender.Errors["https://push.example.com/flaky"] = errors.New("timeout")

	result, err := s.service.NotifyUser(s.GetContext(), "u1", push.Payload{Title: "Missed call"})
	s.Require().NoError(err)
	s.Equal(3, result.Attempted)
	s.Equal(1, result.Delivered)
	s.Equal(1, result.Removed)
	s.Equal(1, result.Failed)
	s.Equal([]string{"https://push.example.com/live"}, fakes.PushSender.Delivered())

	remaining, err := s.GetStores().PushSubscriptionRepo.ListByUserID(s.GetContext(), "u1")
	s.Require().NoError(err)
	s.Len(remaining, 2)
}

func (s *PushServiceSuite) TestNotifyUserWithoutVapidKeys() {
	s.subscribe("u1", "https://push.example.com/live")
	s.GetFakes().PushSender.Disabled = true

	result, err := s.service.NotifyUser(s.GetContext(), "u1", push.Payload{Title: "Missed call"})
	s.Require().NoError(err)
	s.Zero(result.Attempted)
	s.Empty(s.GetFakes().PushSender.Delivered())
}

func (s *PushServiceSuite) TestSendTest() {
	resp, err := s.service.SendTest(s.GetContext(), dto.SendTestPushRequest{})
	s.Require().NoError(err)
	s.False(resp.Attempted)
	s.Equal(pushTestReasonNoSubscription, resp.Reason)

	s.subscribe("u1", "https://push.example.com/old")
	s.subscribe("u2", "https://push.example.com/new")

	resp, err = s.service.SendTest(s.GetContext(), dto.SendTestPushRequest{})
	s.Require().NoError(err)
	s.True(resp.Success)

	resp, err = s.service.SendTest(s.GetContext(), dto.SendTestPushRequest{UserID: "u1"})
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Equal([]string{"https://push.example.com/new", "https://push.example.com/old"}, s.GetFakes().PushSender.Delivered())
}

func (s *PushServiceSuite) TestSendTestReportsDisabledSender() {
	s.GetFakes().PushSender.Disabled = true

	resp, err := s.service.SendTest(s.GetContext(), dto.SendTestPushRequest{})
	s.Require().NoError(err)
	s.Equal(pushTestReasonDisabled, resp.Reason)
}

func (s *PushServiceSuite) TestSendTestBlockedInProduction() {
	s.GetConfig().Deployment.Environment = types.EnvironmentProduction

	_, err := s.service.SendTest(s.GetContext(), dto.SendTestPushRequest{})
	s.True(ierr.Is(err, ierr.ErrPermissionDenied))
}
