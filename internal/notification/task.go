package notification

import (
	"time"

	ierr "github.com/youngchun/callforward/internal/errors"
)

// CallTask carries the fire-and-forget side effects of one inbound call
type CallTask struct {
	ID      string `json:"id"`
	CallSid string `json:"call_sid"`
	// UserID is empty when the called number is not bound to anyone
	UserID string `json:"user_id,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	// LeaveToken is empty when the leave link could not be created
	LeaveToken string    `json:"leave_token,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (t *CallTask) Validate() error {
	if t.ID == "" || t.CallSid == "" {
		return ierr.NewError("call task without id or call sid").
			WithHint("Invalid call task").
			Mark(ierr.ErrValidation)
	}
	return nil
}
