package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/testutil"
	"github.com/youngchun/callforward/internal/types"
)

type VoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service VoiceService
}

func TestVoiceService(t *testing.T) {
	suite.Run(t, new(VoiceServiceSuite))
}

func (s *VoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewVoiceService(newTestServiceParams(&s.BaseServiceTestSuite))

	s.Require().NoError(s.GetStores().BindingRepo.Create(s.GetContext(), &binding.Binding{
		ID:          "cfn_1",
		UserID:      "u1",
		PhoneNumber: "+15550000001",
		ResourceID:  "PN1",
		StartAt:     s.GetNow(),
		ExpireAt:    s.GetNow().AddDate(0, 1, 0),
		BaseModel:   types.NewBaseModel(s.GetNow()),
	}))
}

func (s *VoiceServiceSuite) call(callSid string) dto.InboundCallRequest {
	return dto.InboundCallRequest{
		CallSid: callSid,
		From:    "+821012345678",
		To:      "+15550000001",
	}
}

func (s *VoiceServiceSuite) TestInboundCallQueuesNotifications() {
	twiml, err := s.service.HandleInboundCall(s.GetContext(), s.call("CA1"))
	s.Require().NoError(err)
	s.Contains(twiml, "Hangup")
	s.Contains(twiml, s.GetConfig().Twilio.AutoReply)

	event, err := s.GetStores().CallEventRepo.GetByCallSid(s.GetContext(), "CA1")
	s.Require().NoError(err)
	s.Require().NotNil(event.UserID)
	s.Equal("u1", *event.UserID)

	tasks := s.GetFakes().Notification.Tasks()
	s.Require().Len(tasks, 1)
	s.Equal("CA1", tasks[0].CallSid)
	s.Equal("u1", tasks[0].UserID)
	s.Len(tasks[0].LeaveToken, 32)

	link, err := s.GetStores().LeaveRepo.GetLink(s.GetContext(), tasks[0].LeaveToken)
	s.Require().NoError(err)
	s.Equal(s.GetNow().Add(48*time.Hour), link.ExpiresAt)
	s.Equal(types.LeaveLinkStatusActive, link.Status)
}

func (s *VoiceServiceSuite) TestDuplicateWebhookDoesNotRequeue() {
	_, err := s.service.HandleInboundCall(s.GetContext(), s.call("CA1"))
	s.Require().NoError(err)
	_, err = s.service.HandleInboundCall(s.GetContext(), s.call("CA1"))
	s.Require().NoError(err)

	s.Len(s.GetFakes().Notification.Tasks(), 1)
}

func (s *VoiceServiceSuite) TestUnknownNumberStillAnswers() {
	req := s.call("CA2")
	req.To = "+15559999999"

	twiml, err := s.service.HandleInboundCall(s.GetContext(), req)
	s.Require().NoError(err)
	s.NotEmpty(twiml)

	tasks := s.GetFakes().Notification.Tasks()
	s.Require().Len(tasks, 1)
	s.Empty(tasks[0].UserID)
}

func (s *VoiceServiceSuite) TestPublishFailureDoesNotFailCall() {
	s.GetFakes().Notification.Err = errors.New("router closed")

	twiml, err := s.service.HandleInboundCall(s.GetContext(), s.call("CA3"))
	s.Require().NoError(err)
	s.NotEmpty(twiml)
}

func (s *VoiceServiceSuite) TestMissingCallSidAnswersOnly() {
	twiml, err := s.service.HandleInboundCall(s.GetContext(), dto.InboundCallRequest{From: "+1"})
	s.Require().NoError(err)
	s.NotEmpty(twiml)
	s.Empty(s.GetFakes().Notification.Tasks())
}
