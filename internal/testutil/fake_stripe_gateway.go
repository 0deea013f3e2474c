package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/stripe/stripe-go/v82"
	ierr "github.com/youngchun/callforward/internal/errors"
	stripeintegration "github.com/youngchun/callforward/internal/integration/stripe"
)

var _ stripeintegration.Gateway = (*FakeStripeGateway)(nil)

// FakeStripeGateway accepts payloads signed with Signature and records checkout requests
type FakeStripeGateway struct {
	mu sync.Mutex

	Signature   string
	CheckoutErr error
	requests    []stripeintegration.CheckoutSessionRequest
}

func NewFakeStripeGateway() *FakeStripeGateway {
	return &FakeStripeGateway{Signature: "t=1,v1=test"}
}

func (g *FakeStripeGateway) ParseWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	if signature == "" || signature != g.Signature {
		return nil, ierr.NewError("invalid stripe signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

func (g *FakeStripeGateway) CreateCheckoutSession(ctx context.Context, req stripeintegration.CheckoutSessionRequest) (*stripeintegration.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.CheckoutErr != nil {
		return nil, g.CheckoutErr
	}
	g.requests = append(g.requests, req)
	return &stripeintegration.CheckoutSession{
		ID:  "cs_test_" + req.UserID,
		URL: "https://checkout.stripe.com/c/pay/cs_test_" + req.UserID,
	}, nil
}

func (g *FakeStripeGateway) CheckoutRequests() []stripeintegration.CheckoutSessionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]stripeintegration.CheckoutSessionRequest(nil), g.requests...)
}
