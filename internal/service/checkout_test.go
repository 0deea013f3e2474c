package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/youngchun/callforward/internal/api/dto"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/testutil"
)

type CheckoutServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CheckoutService
}

func TestCheckoutService(t *testing.T) {
	suite.Run(t, new(CheckoutServiceSuite))
}

func (s *CheckoutServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCheckoutService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *CheckoutServiceSuite) TestCreateSession() {
	resp, err := s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{UserID: "u1"})
	s.Require().NoError(err)
	s.Equal("cs_test_u1", resp.SessionID)
	s.Contains(resp.URL, "checkout.stripe.com")

	requests := s.GetFakes().Stripe.CheckoutRequests()
	s.Require().Len(requests, 1)
	s.Equal("u1", requests[0].UserID)
	s.NotEmpty(requests[0].IdempotencyKey)
}

func (s *CheckoutServiceSuite) TestIdempotencyKeyWindow() {
	s.SetNow(time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC))
	_, err := s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{UserID: "u1"})
	s.Require().NoError(err)

	s.SetNow(time.Date(2025, 3, 1, 10, 0, 55, 0, time.UTC))
	_, err = s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{UserID: "u1"})
	s.Require().NoError(err)

	s.SetNow(time.Date(2025, 3, 1, 10, 1, 5, 0, time.UTC))
	_, err = s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{UserID: "u1"})
	s.Require().NoError(err)

	_, err = s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{UserID: "u2"})
	s.Require().NoError(err)

	requests := s.GetFakes().Stripe.CheckoutRequests()
	s.Require().Len(requests, 4)
	s.Equal(requests[0].IdempotencyKey, requests[1].IdempotencyKey)
	s.NotEqual(requests[1].IdempotencyKey, requests[2].IdempotencyKey)
	s.NotEqual(requests[2].IdempotencyKey, requests[3].IdempotencyKey)
}

func (s *CheckoutServiceSuite) TestCreateSessionRequiresUser() {
	_, err := s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{})
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetFakes().Stripe.CheckoutRequests())
}

func (s *CheckoutServiceSuite) TestCreateSessionProviderError() {
	s.GetFakes().Stripe.CheckoutErr = ierr.WithError(errors.New("card declined")).
		Mark(ierr.ErrProvider)

	_, err := s.service.CreateSession(s.GetContext(), dto.CreateCheckoutSessionRequest{UserID: "u1"})
	s.Require().Error(err)
	s.True(ierr.IsProvider(err))
}
