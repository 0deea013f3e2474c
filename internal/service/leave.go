package service

import (
	"context"
	"strings"

	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/leave"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// LeaveService serves the leave-a-message form a caller reaches by SMS
type LeaveService interface {
	Validate(ctx context.Context, token string) (*dto.ValidateLeaveLinkResponse, error)
	Submit(ctx context.Context, token string, req dto.SubmitLeaveMessageRequest) (*dto.SubmitLeaveMessageResponse, error)
	// GetMessage returns a stored message. Malformed ids fail validation before any lookup.
	GetMessage(ctx context.Context, id string) (*dto.LeaveMessageResponse, error)
}

type leaveService struct {
	ServiceParams
}

func NewLeaveService(params ServiceParams) LeaveService {
	return &leaveService{
		ServiceParams: params,
	}
}

func (s *leaveService) Validate(ctx context.Context, token string) (*dto.ValidateLeaveLinkResponse, error) {
	link, err := s.getLink(ctx, token)
	if err != nil {
		return nil, err
	}

	valid, reason := link.Check(s.now())
	return &dto.ValidateLeaveLinkResponse{
		Valid:  valid,
		Reason: reason,
	}, nil
}

func (s *leaveService) Submit(ctx context.Context, token string, req dto.SubmitLeaveMessageRequest) (*dto.SubmitLeaveMessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg := &leave.Message{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEAVE_MESSAGE),
		Token:     strings.TrimSpace(token),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.now(),
	}

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		link, err := s.getLink(ctx, token)
		if err != nil {
			return err
		}
		if valid, reason := link.Check(s.now()); !valid {
			mark := ierr.ErrInvalidOperation
			if reason == types.LeaveLinkReasonNotFound {
				mark = ierr.ErrNotFound
			}
			return ierr.NewError("leave link is not usable").
				WithHintf("This link is %s", linkReasonText(reason)).
				WithReportableDetails(map[string]any{"reason": reason}).
				Mark(mark)
		}

		if err := s.LeaveRepo.CreateMessage(ctx, msg); err != nil {
			return err
		}
		// a concurrent submit that used the link first makes this one fail
		if err := s.LeaveRepo.MarkUsed(ctx, link.Token, s.now()); err != nil {
			if ierr.IsNotFound(err) {
				return ierr.WithError(err).
					WithHint("This link was already used").
					Mark(ierr.ErrInvalidOperation)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("stored leave message",
		"message_id", msg.ID,
		"length", len(msg.Message),
	)
	return &dto.SubmitLeaveMessageResponse{
		Success:   true,
		MessageID: msg.ID,
	}, nil
}

func (s *leaveService) GetMessage(ctx context.Context, id string) (*dto.LeaveMessageResponse, error) {
	id = strings.TrimSpace(id)
	if !types.ValidateUUIDWithPrefix(id, types.UUID_PREFIX_LEAVE_MESSAGE) {
		return nil, ierr.NewError("invalid leave message id").
			WithHint("Invalid message id").
			WithReportableDetails(map[string]any{"message_id": id}).
			Mark(ierr.ErrValidation)
	}

	msg, err := s.LeaveRepo.GetMessage(ctx, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("Message not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	return &dto.LeaveMessageResponse{
		ID:        msg.ID,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}, nil
}

// getLink returns nil without error when the token is unknown
func (s *leaveService) getLink(ctx context.Context, token string) (*leave.Link, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	link, err := s.LeaveRepo.GetLink(ctx, token)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return link, nil
}

func linkReasonText(reason types.LeaveLinkInvalidReason) string {
	switch reason {
	case types.LeaveLinkReasonExpired:
		return "expired"
	case types.LeaveLinkReasonUsed:
		return "already used"
	default:
		return "not valid"
	}
}
