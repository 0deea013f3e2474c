package messageattempt

import (
	"context"

	"github.com/youngchun/callforward/internal/types"
)

// Attempt tracks one outbound SMS from request to delivery callback
type Attempt struct {
	ID       string                    `db:"id" json:"id"`
	CallSid  *string                   `db:"call_sid" json:"call_sid,omitempty"`
	Kind     types.MessageAttemptKind  `db:"kind" json:"kind"`
	ToNumber string                    `db:"to_number" json:"to_number"`
	Stage    types.MessageAttemptStage `db:"request_stage" json:"request_stage"`

	MessageSid     *string `db:"twilio_message_sid" json:"twilio_message_sid,omitempty"`
	ProviderStatus *string `db:"twilio_status" json:"twilio_status,omitempty"`
	ErrorCode      *string `db:"twilio_error_code" json:"twilio_error_code,omitempty"`
	ErrorMessage   *string `db:"error_message" json:"error_message,omitempty"`

	types.BaseModel
}

// DeliveryStatus is a provider status callback for an attempt
type DeliveryStatus struct {
	AttemptID  string
	MessageSid string
	Status     string
	ErrorCode  string
}

type Repository interface {
	Create(ctx context.Context, attempt *Attempt) error
	Get(ctx context.Context, id string) (*Attempt, error)
	MarkSent(ctx context.Context, id, messageSid string) error
	MarkFailed(ctx context.Context, id, reason string) error
	// RecordCallback moves the attempt to callback_received. The message sid and
	// error code only fill empty columns.
	RecordCallback(ctx context.Context, status DeliveryStatus) error
}
