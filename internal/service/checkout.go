package service

import (
	"context"
	"strings"
	"time"

	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/idempotency"
	stripeintegration "github.com/youngchun/callforward/internal/integration/stripe"
)

// CheckoutService starts Stripe subscription checkouts
type CheckoutService interface {
	CreateSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.CreateCheckoutSessionResponse, error)
}

type checkoutService struct {
	ServiceParams
	idempotency *idempotency.Generator
}

func NewCheckoutService(params ServiceParams) CheckoutService {
	return &checkoutService{
		ServiceParams: params,
		idempotency:   idempotency.NewGenerator(),
	}
}

func (s *checkoutService) CreateSession(ctx context.Context, req dto.CreateCheckoutSessionRequest) (*dto.CreateCheckoutSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.UserID)

	// double clicks within the same minute return the same session
	key := s.idempotency.GenerateKey(idempotency.ScopeCheckoutSession, map[string]interface{}{
		"user_id":  userID,
		"price_id": s.Config.Stripe.PriceID,
		"minute":   s.now().Truncate(time.Minute).Unix(),
	})

	session, err := s.Stripe.CreateCheckoutSession(ctx, stripeintegration.CheckoutSessionRequest{
		UserID:         userID,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreateCheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}
