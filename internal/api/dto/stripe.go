package dto

import (
	"github.com/youngchun/callforward/internal/domain/subscription"
	"github.com/youngchun/callforward/internal/validator"
)

// StripeWebhookResult describes what a verified Stripe event did
type StripeWebhookResult struct {
	EventID      string                     `json:"event_id"`
	EventType    string                     `json:"event_type"`
	Duplicate    bool                       `json:"duplicate,omitempty"`
	Ignored      bool                       `json:"ignored,omitempty"`
	Subscription *subscription.Subscription `json:"subscription,omitempty"`
	Assignment   *AssignResult              `json:"assignment,omitempty"`
	// Warning is set when processing failed after the signature was verified
	Warning string `json:"warning,omitempty"`
}

// CreateCheckoutSessionRequest starts a subscription checkout for a user
type CreateCheckoutSessionRequest struct {
	UserID string `json:"user_id" validate:"required,max=255"`
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CreateCheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
