package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/callevent"
	"github.com/youngchun/callforward/internal/domain/leave"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/notification"
	"github.com/youngchun/callforward/internal/telephony"
	"github.com/youngchun/callforward/internal/types"
)

const (
	defaultLeaveLinkTTL = 48 * time.Hour
	leaveTokenBytes     = 16
)

// VoiceService answers calls to provisioned numbers
type VoiceService interface {
	// HandleInboundCall records the call, queues its notifications and returns
	// the TwiML played to the caller. Bookkeeping failures never fail the call.
	HandleInboundCall(ctx context.Context, req dto.InboundCallRequest) (string, error)
}

type voiceService struct {
	ServiceParams
}

func NewVoiceService(params ServiceParams) VoiceService {
	return &voiceService{
		ServiceParams: params,
	}
}

func (s *voiceService) HandleInboundCall(ctx context.Context, req dto.InboundCallRequest) (string, error) {
	twiml, err := telephony.AutoReplyTwiML(s.Config.Twilio.AutoReply)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to render voice response").
			Mark(ierr.ErrSystem)
	}

	callSid := strings.TrimSpace(req.CallSid)
	if callSid == "" {
		s.Logger.Warnw("inbound call without call sid",
			"from", req.From,
			"to", req.To,
		)
		return twiml, nil
	}
	ctx = types.SetTraceID(ctx, callSid)

	userID := s.resolveUser(ctx, req.To)

	isNew, err := s.CallEventRepo.Record(ctx, &callevent.CallEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CALL_EVENT),
		CallSid:    callSid,
		UserID:     lo.EmptyableToPtr(userID),
		FromNumber: req.From,
		ToNumber:   req.To,
		CreatedAt:  s.now(),
	})
	if err != nil {
		// still notify, a missing call event only costs history
		s.Logger.Errorw("failed to record call event",
			"error", err,
			"call_sid", callSid,
		)
		isNew = true
	}
	if !isNew {
		s.Logger.Infow("duplicate inbound call webhook, notifications already queued",
			"call_sid", callSid,
		)
		return twiml, nil
	}

	token, err := s.leaveToken(ctx, callSid, req.From, req.To)
	if err != nil {
		s.Logger.Errorw("failed to create leave link",
			"error", err,
			"call_sid", callSid,
		)
	}

	if err := s.NotificationPublisher.PublishCallTask(ctx, &notification.CallTask{
		CallSid:    callSid,
		UserID:     userID,
		From:       req.From,
		To:         req.To,
		LeaveToken: token,
		OccurredAt: s.now(),
	}); err != nil {
		s.Logger.Errorw("failed to queue call notifications",
			"error", err,
			"call_sid", callSid,
		)
	}

	s.Logger.Infow("handled inbound call",
		"call_sid", callSid,
		"user_id", userID,
		"has_leave_link", token != "",
	)
	return twiml, nil
}

func (s *voiceService) resolveUser(ctx context.Context, to string) string {
	if to == "" {
		return ""
	}
	b, err := s.BindingRepo.GetActiveByPhoneNumber(ctx, to)
	if err != nil {
		if !ierr.IsNotFound(err) {
			s.Logger.Warnw("failed to resolve number owner",
				"error", err,
				"twilio_number", to,
			)
		}
		return ""
	}
	return b.UserID
}

// leaveToken reuses the call's unused link while it is valid, otherwise issues a new one
func (s *voiceService) leaveToken(ctx context.Context, callSid, from, to string) (string, error) {
	existing, err := s.LeaveRepo.GetLinkByCallSid(ctx, callSid)
	if err != nil && !ierr.IsNotFound(err) {
		return "", err
	}
	if valid, _ := existing.Check(s.now()); valid {
		return existing.Token, nil
	}

	token, err := newLeaveToken()
	if err != nil {
		return "", err
	}

	ttl := s.Config.Leave.LinkTTL
	if ttl <= 0 {
		ttl = defaultLeaveLinkTTL
	}
	now := s.now()
	if err := s.LeaveRepo.CreateLink(ctx, &leave.Link{
		Token:      token,
		CallSid:    &callSid,
		FromNumber: from,
		ToNumber:   to,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		Status:     types.LeaveLinkStatusActive,
	}); err != nil {
		return "", err
	}
	return token, nil
}

func newLeaveToken() (string, error) {
	b := make([]byte, leaveTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate leave link").
			Mark(ierr.ErrSystem)
	}
	return hex.EncodeToString(b), nil
}
