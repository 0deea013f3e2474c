package dto

import (
	"strings"

	ierr "github.com/youngchun/callforward/internal/errors"
)

type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// CreatePushSubscriptionRequest is the browser PushSubscription JSON plus an optional user mapping
type CreatePushSubscriptionRequest struct {
	Endpoint  string               `json:"endpoint"`
	Keys      PushSubscriptionKeys `json:"keys"`
	UserID    string               `json:"user_id,omitempty"`
	UserAgent string               `json:"-"`
}

func (r *CreatePushSubscriptionRequest) Validate() error {
	if strings.TrimSpace(r.Endpoint) == "" || r.Keys.P256dh == "" || r.Keys.Auth == "" {
		return ierr.NewError("endpoint and keys are required").
			WithHint("Invalid subscription").
			Mark(ierr.ErrValidation)
	}
	if !strings.HasPrefix(r.Endpoint, "https://") {
		return ierr.NewError("push endpoint must be https").
			WithHint("Invalid subscription").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type CreatePushSubscriptionResponse struct {
	Success bool `json:"success"`
	Created bool `json:"created"`
}

// NotifyResult summarizes a fan-out to every subscription of a user
type NotifyResult struct {
	Attempted int `json:"attempted"`
	Delivered int `json:"delivered"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

type SendTestPushRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type SendTestPushResponse struct {
	Attempted bool   `json:"attempted"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
}
