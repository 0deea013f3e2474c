package types

import (
	"fmt"
	"strings"
)

// SubscriptionStatus is the ledger status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "pending"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusInvalid  SubscriptionStatus = "invalid"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	switch s {
	case SubscriptionStatusPending,
		SubscriptionStatusActive,
		SubscriptionStatusCanceled,
		SubscriptionStatusInvalid:
		return nil
	}
	return fmt.Errorf("invalid subscription status: %q", string(s))
}

// SubscriptionStatusFromStripe maps a Stripe subscription status onto the ledger status set.
func SubscriptionStatusFromStripe(status string) SubscriptionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return SubscriptionStatusActive
	case "canceled", "incomplete_expired":
		return SubscriptionStatusCanceled
	case "incomplete", "past_due", "unpaid", "paused":
		return SubscriptionStatusPending
	default:
		return SubscriptionStatusInvalid
	}
}

// LeaveLinkStatus is the state of a leave-message link
type LeaveLinkStatus string

const (
	LeaveLinkStatusActive LeaveLinkStatus = "active"
	LeaveLinkStatusUsed   LeaveLinkStatus = "used"
)

// LeaveLinkInvalidReason explains why a leave link can not be used
type LeaveLinkInvalidReason string

const (
	LeaveLinkReasonNotFound LeaveLinkInvalidReason = "not_found"
	LeaveLinkReasonExpired  LeaveLinkInvalidReason = "expired"
	LeaveLinkReasonUsed     LeaveLinkInvalidReason = "used"
)

// MessageAttemptStage tracks an outbound SMS through its lifecycle
type MessageAttemptStage string

const (
	MessageAttemptStageRequested        MessageAttemptStage = "requested"
	MessageAttemptStageSent             MessageAttemptStage = "sent"
	MessageAttemptStageFailed           MessageAttemptStage = "failed"
	MessageAttemptStageCallbackReceived MessageAttemptStage = "callback_received"
)

// MessageAttemptKind distinguishes caller replies from operator alerts
type MessageAttemptKind string

const (
	MessageAttemptKindCallerReply   MessageAttemptKind = "caller_reply"
	MessageAttemptKindOperatorAlert MessageAttemptKind = "operator_alert"
)
