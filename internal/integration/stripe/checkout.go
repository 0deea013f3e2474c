package stripe

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v82"
	ierr "github.com/youngchun/callforward/internal/errors"
)

// MetadataUserID is the metadata key that maps a Stripe object back to a user
const MetadataUserID = "user_id"

// CheckoutSessionRequest describes a subscription checkout for one user
type CheckoutSessionRequest struct {
	UserID         string
	IdempotencyKey string
}

// CheckoutSession is the subset of the Stripe session returned to the browser
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession creates a subscription checkout session for the configured price
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	api, err := c.client()
	if err != nil {
		return nil, err
	}

	params, err := buildCheckoutParams(c.cfg.PriceID, c.cfg.SuccessURL, c.cfg.CancelURL, req)
	if err != nil {
		return nil, err
	}

	session, err := api.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		c.logger.Errorw("failed to create Stripe checkout session",
			"error", err,
			"user_id", req.UserID)
		return nil, ierr.WithError(err).
			WithHint("Unable to create Stripe checkout session").
			WithReportableDetails(map[string]interface{}{
				"user_id": req.UserID,
			}).
			Mark(ierr.ErrProvider)
	}

	c.logger.Infow("created Stripe checkout session",
		"session_id", session.ID,
		"user_id", req.UserID)

	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func buildCheckoutParams(priceID, successURL, cancelURL string, req CheckoutSessionRequest) (*stripe.CheckoutSessionCreateParams, error) {
	if priceID == "" {
		return nil, ierr.NewError("stripe price id not configured").
			WithHint("Subscription price is not configured").
			Mark(ierr.ErrConfiguration)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ierr.NewError("user id is required").
			WithHint("User ID is required").
			Mark(ierr.ErrValidation)
	}

	metadata := map[string]string{MetadataUserID: userID}

	params := &stripe.CheckoutSessionCreateParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(userID),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params, nil
}
