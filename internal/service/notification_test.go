package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/notification"
	"github.com/youngchun/callforward/internal/testutil"
	"github.com/youngchun/callforward/internal/types"
)

type NotificationServiceSuite struct {
	testutil.BaseServiceTestSuite
	params  ServiceParams
	service NotificationService
}

func TestNotificationService(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = NewNotificationService(s.params, NewPushService(s.params))
}

func (s *NotificationServiceSuite) task() *notification.CallTask {
	return &notification.CallTask{
		ID:         "task_1",
		CallSid:    "CA1",
		From:       "+821012345678",
		To:         "+15550000001",
		LeaveToken: "abc123",
		OccurredAt: s.GetNow(),
	}
}

func (s *NotificationServiceSuite) TestCallerReceivesLeaveLink() {
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))

	sent := s.GetFakes().Telephony.SentMessages()
	s.Require().Len(sent, 1)
	s.Equal("+821012345678", sent[0].To)
	s.Equal("Sorry we missed your call. Leave a message here: https://callforward.test/leave/abc123", sent[0].Body)
	s.Empty(sent[0].StatusCallbackURL)

	attempts := s.GetStores().MessageAttemptRepo.ByKind(s.GetContext(), types.MessageAttemptKindCallerReply)
	s.Require().Len(attempts, 1)
	s.Equal(types.MessageAttemptStageSent, attempts[0].Stage)
	s.Require().NotNil(attempts[0].MessageSid)
}

func (s *NotificationServiceSuite) TestMissingLeaveTokenFallsBackToDebugForm() {
	task := s.task()
	task.LeaveToken = ""
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), task))

	sent := s.GetFakes().Telephony.SentMessages()
	s.Require().Len(sent, 1)
	s.True(strings.HasSuffix(sent[0].Body, "https://callforward.test/leave/debug"))
}

func (s *NotificationServiceSuite) TestRetryDoesNotResend() {
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))

	s.Len(s.GetFakes().Telephony.SentMessages(), 1)
}

func (s *NotificationServiceSuite) TestSendFailureIsRetried() {
	s.GetFakes().Telephony.SendErr = errors.New("twilio unavailable")
	s.Require().Error(s.service.ProcessCallTask(s.GetContext(), s.task()))

	attempts := s.GetStores().MessageAttemptRepo.ByKind(s.GetContext(), types.MessageAttemptKindCallerReply)
	s.Require().Len(attempts, 1)
	s.Equal(types.MessageAttemptStageFailed, attempts[0].Stage)

	s.GetFakes().Telephony.SendErr = nil
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))
	s.Len(s.GetFakes().Telephony.SentMessages(), 1)

	attempts = s.GetStores().MessageAttemptRepo.ByKind(s.GetContext(), types.MessageAttemptKindCallerReply)
	s.Equal(types.MessageAttemptStageSent, attempts[0].Stage)
}

func (s *NotificationServiceSuite) TestOperatorAlertAndStatusCallback() {
	s.GetConfig().Twilio.AlertTarget = "+15551230000"
	s.GetConfig().Twilio.PublicBaseURL = "https://api.callforward.test/"

	task := s.task()
	task.UserID = "u1"
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), task))

	sent := s.GetFakes().Telephony.SentMessages()
	s.Require().Len(sent, 2)

	alerts := s.GetStores().MessageAttemptRepo.ByKind(s.GetContext(), types.MessageAttemptKindOperatorAlert)
	s.Require().Len(alerts, 1)
	s.Equal("+15551230000", alerts[0].ToNumber)

	for _, msg := range sent {
		s.True(strings.HasPrefix(msg.StatusCallbackURL, "https://api.callforward.test/v1/twilio/sms-status?attempt_id="))
		if msg.To == "+15551230000" {
			s.Equal("Missed call from +821012345678 to +15550000001 (user u1)", msg.Body)
		}
	}
}

func (s *NotificationServiceSuite) TestMessagingServiceNotConfigured() {
	s.GetConfig().Twilio.MessagingServiceSID = ""
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))
	s.Empty(s.GetFakes().Telephony.SentMessages())
}

func (s *NotificationServiceSuite) TestSubscriberGetsPush() {
	_, err := NewPushService(s.params).Subscribe(s.GetContext(), dto.CreatePushSubscriptionRequest{
		Endpoint: "https://push.example.com/u1",
		Keys:     dto.PushSubscriptionKeys{P256dh: "p256dh", Auth: "auth"},
		UserID:   "u1",
	})
	s.Require().NoError(err)

	task := s.task()
	task.UserID = "u1"
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), task))

	s.Equal([]string{"https://push.example.com/u1"}, s.GetFakes().PushSender.Delivered())
	payloads := s.GetFakes().PushSender.Payloads()
	s.Require().Len(payloads, 1)
	s.Contains(string(payloads[0]), "Missed call from +821012345678")
}

func (s *NotificationServiceSuite) TestPushSkippedForUnboundNumber() {
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))
	s.Empty(s.GetFakes().PushSender.Delivered())
}

func (s *NotificationServiceSuite) TestRecordDeliveryStatus() {
	s.Require().NoError(s.service.ProcessCallTask(s.GetContext(), s.task()))
	attempt := s.GetStores().MessageAttemptRepo.ByKind(s.GetContext(), types.MessageAttemptKindCallerReply)[0]

	err := s.service.RecordDeliveryStatus(s.GetContext(), dto.SMSStatusCallback{
		AttemptID:     attempt.ID,
		MessageSid:    *attempt.MessageSid,
		MessageStatus: "delivered",
	})
	s.Require().NoError(err)

	stored, err := s.GetStores().MessageAttemptRepo.Get(s.GetContext(), attempt.ID)
	s.Require().NoError(err)
	s.Equal(types.MessageAttemptStageCallbackReceived, stored.Stage)
	s.Require().NotNil(stored.ProviderStatus)
	s.Equal("delivered", *stored.ProviderStatus)
}

func (s *NotificationServiceSuite) TestRecordDeliveryStatusWithoutAttempt() {
	s.NoError(s.service.RecordDeliveryStatus(s.GetContext(), dto.SMSStatusCallback{
		SmsSid:    "SM1",
		SmsStatus: "sent",
	}))

	err := s.service.RecordDeliveryStatus(s.GetContext(), dto.SMSStatusCallback{
		AttemptID:     "missing",
		MessageStatus: "failed",
	})
	s.Error(err)
}
