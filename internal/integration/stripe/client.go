package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/youngchun/callforward/internal/config"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
)

// Gateway is the payment provider surface the services depend on
type Gateway interface {
	// ParseWebhookEvent verifies the Stripe-Signature header and returns the event
	ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error)
	// CreateCheckoutSession creates a subscription mode checkout session
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
}

// Client handles Stripe API client setup and webhook verification
type Client struct {
	cfg    config.StripeConfig
	logger *logger.Logger
	api    *stripe.Client
}

// NewClient creates a new Stripe client from the static configuration
func NewClient(cfg *config.Configuration, logger *logger.Logger) Gateway {
	c := &Client{
		cfg:    cfg.Stripe,
		logger: logger,
	}
	if cfg.Stripe.SecretKey != "" {
		c.api = stripe.NewClient(cfg.Stripe.SecretKey)
	} else {
		logger.Warnw("stripe secret key not configured, checkout sessions are disabled")
	}
	return c
}

// ParseWebhookEvent parses a Stripe webhook event with signature verification
func (c *Client) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	if c.cfg.WebhookSecret == "" {
		return nil, ierr.NewError("stripe webhook secret not configured").
			WithHint("Stripe webhooks can not be verified").
			Mark(ierr.ErrConfiguration)
	}
	if signature == "" {
		return nil, ierr.NewError("missing Stripe-Signature header").
			WithHint("Missing Stripe-Signature header").
			Mark(ierr.ErrValidation)
	}

	// Verify the webhook signature, ignoring API version mismatch
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.cfg.WebhookSecret, options)
	if err != nil {
		c.logger.Warnw("stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

func (c *Client) client() (*stripe.Client, error) {
	if c.api == nil {
		return nil, ierr.NewError("stripe secret key not configured").
			WithHint("Stripe is not configured").
			Mark(ierr.ErrConfiguration)
	}
	return c.api, nil
}
