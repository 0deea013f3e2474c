package dto

import (
	"strings"
	"time"
	"unicode/utf8"

	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// MaxLeaveMessageLength is the longest message a caller can leave, in characters
const MaxLeaveMessageLength = 2000

type ValidateLeaveLinkResponse struct {
	Valid  bool                         `json:"valid"`
	Reason types.LeaveLinkInvalidReason `json:"reason,omitempty"`
}

type SubmitLeaveMessageRequest struct {
	Message string `json:"message"`
}

func (r *SubmitLeaveMessageRequest) Validate() error {
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return ierr.NewError("message is required").
			WithHint("Invalid message").
			Mark(ierr.ErrValidation)
	}
	if n := utf8.RuneCountInString(msg); n > MaxLeaveMessageLength {
		return ierr.NewError("message too long").
			WithHintf("Message must be at most %d characters", MaxLeaveMessageLength).
			WithReportableDetails(map[string]any{"length": n}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type SubmitLeaveMessageResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
}

type LeaveMessageResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
