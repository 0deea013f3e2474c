package callevent

import (
	"context"
	"time"
)

// CallEvent is one inbound call to a provisioned number
type CallEvent struct {
	ID         string    `db:"id" json:"id"`
	CallSid    string    `db:"call_sid" json:"call_sid"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	FromNumber string    `db:"from_number" json:"from_number"`
	ToNumber   string    `db:"to_number" json:"to_number"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	// Record stores the call once per call sid and reports whether it was new
	Record(ctx context.Context, event *CallEvent) (bool, error)
	GetByCallSid(ctx context.Context, callSid string) (*CallEvent, error)
}
