package telephony

import (
	"context"
	"net/url"
	"strings"

	ierr "github.com/youngchun/callforward/internal/errors"
)

// AvailableNumber is a number offered by the provider for purchase
type AvailableNumber struct {
	PhoneNumber string
}

// PurchasedNumber is a number now owned by the account
type PurchasedNumber struct {
	PhoneNumber string
	// ResourceID is the provider handle used to release the number
	ResourceID string
}

// SMS is an outbound text message sent through the messaging service
type SMS struct {
	To                string
	Body              string
	StatusCallbackURL string
}

// SentMessage is the provider acknowledgement for an SMS
type SentMessage struct {
	Sid    string
	Status string
}

// Provider is the telephony capability the number lifecycle depends on
type Provider interface {
	// SearchAvailable returns one voice capable local number in country, or nil when none is offered
	SearchAvailable(ctx context.Context, country string) (*AvailableNumber, error)
	// Purchase buys phoneNumber and attaches the voice webhook
	Purchase(ctx context.Context, phoneNumber, voiceURL string) (*PurchasedNumber, error)
	// Release deallocates a purchased number. Releasing an unknown number succeeds.
	Release(ctx context.Context, resourceID string) error
	SendSMS(ctx context.Context, msg SMS) (*SentMessage, error)
}

// ValidateVoiceWebhookURL checks that the voice webhook is an absolute https URL
// with no surrounding whitespace, since the value is handed to the provider as is.
// Purchases are refused before any provider call when it is not.
func ValidateVoiceWebhookURL(raw string) error {
	if raw != strings.TrimSpace(raw) {
		return ierr.NewError("voice webhook url has surrounding whitespace").
			WithHint("The voice webhook URL is not configured correctly").
			WithReportableDetails(map[string]any{"voice_webhook_url": raw}).
			Mark(ierr.ErrConfiguration)
	}
	if !strings.HasPrefix(raw, "https://") || len(raw) <= len("https://") {
		return ierr.NewError("voice webhook url must be an absolute https url").
			WithHint("The voice webhook URL is not configured correctly").
			WithReportableDetails(map[string]any{"voice_webhook_url": raw}).
			Mark(ierr.ErrConfiguration)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ierr.NewError("voice webhook url has no host").
			WithHint("The voice webhook URL is not configured correctly").
			WithReportableDetails(map[string]any{"voice_webhook_url": raw}).
			Mark(ierr.ErrConfiguration)
	}
	return nil
}
