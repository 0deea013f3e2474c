package telephony

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/lo"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/youngchun/callforward/internal/config"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/sentry"
)

// TwilioProvider implements Provider on the Twilio REST API
type TwilioProvider struct {
	client              *twilio.RestClient
	messagingServiceSID string
	logger              *logger.Logger
	sentry              *sentry.Service
}

func NewTwilioProvider(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) Provider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.Twilio.AccountSID,
		Password: cfg.Twilio.AuthToken,
	})

	return &TwilioProvider{
		client:              client,
		messagingServiceSID: cfg.Twilio.MessagingServiceSID,
		logger:              logger,
		sentry:              sentry,
	}
}

func (p *TwilioProvider) SearchAvailable(ctx context.Context, country string) (*AvailableNumber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span, _ := p.sentry.StartProviderSpan(ctx, "twilio", "search_available", map[string]interface{}{
		"country": country,
	})
	if span != nil {
		defer span.Finish()
	}

	params := &twilioapi.ListAvailablePhoneNumberLocalParams{}
	params.SetVoiceEnabled(true)
	params.SetLimit(1)

	numbers, err := p.client.Api.ListAvailablePhoneNumberLocal(country, params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to search available phone numbers").
			WithReportableDetails(map[string]any{
				"country": country,
			}).
			Mark(ierr.ErrProvider)
	}

	number, ok := lo.Find(numbers, func(n twilioapi.ApiV2010AvailablePhoneNumberLocal) bool {
		return lo.FromPtr(n.PhoneNumber) != ""
	})
	if !ok {
		return nil, nil
	}

	return &AvailableNumber{PhoneNumber: lo.FromPtr(number.PhoneNumber)}, nil
}

func (p *TwilioProvider) Purchase(ctx context.Context, phoneNumber, voiceURL string) (*PurchasedNumber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span, _ := p.sentry.StartProviderSpan(ctx, "twilio", "purchase", map[string]interface{}{
		"phone_number": phoneNumber,
	})
	if span != nil {
		defer span.Finish()
	}

	params := &twilioapi.CreateIncomingPhoneNumberParams{}
	params.SetPhoneNumber(phoneNumber)
	params.SetVoiceUrl(voiceURL)
	params.SetVoiceMethod(http.MethodPost)

	resp, err := p.client.Api.CreateIncomingPhoneNumber(params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to purchase phone number").
			WithReportableDetails(map[string]any{
				"phone_number": phoneNumber,
			}).
			Mark(ierr.ErrProviderPurchaseFailed)
	}

	purchased := &PurchasedNumber{
		PhoneNumber: lo.FromPtr(resp.PhoneNumber),
		ResourceID:  lo.FromPtr(resp.Sid),
	}
	if purchased.PhoneNumber == "" {
		purchased.PhoneNumber = phoneNumber
	}
	return purchased, nil
}

func (p *TwilioProvider) Release(ctx context.Context, resourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	span, _ := p.sentry.StartProviderSpan(ctx, "twilio", "release", map[string]interface{}{
		"twilio_sid": resourceID,
	})
	if span != nil {
		defer span.Finish()
	}

	err := p.client.Api.DeleteIncomingPhoneNumber(resourceID, &twilioapi.DeleteIncomingPhoneNumberParams{})
	if err == nil {
		return nil
	}

	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
		p.logger.Warnw("number already released at provider", "twilio_sid", resourceID)
		return nil
	}

	return ierr.WithError(err).
		WithHint("Failed to release phone number").
		WithReportableDetails(map[string]any{
			"twilio_sid": resourceID,
		}).
		Mark(ierr.ErrProviderReleaseFailed)
}

func (p *TwilioProvider) SendSMS(ctx context.Context, msg SMS) (*SentMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.messagingServiceSID == "" {
		return nil, ierr.NewError("messaging service sid is not configured").
			WithHint("SMS sending is not configured").
			Mark(ierr.ErrConfiguration)
	}

	span, _ := p.sentry.StartProviderSpan(ctx, "twilio", "send_sms", nil)
	if span != nil {
		defer span.Finish()
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetMessagingServiceSid(p.messagingServiceSID)
	params.SetBody(msg.Body)
	if msg.StatusCallbackURL != "" {
		params.SetStatusCallback(msg.StatusCallbackURL)
	}

	resp, err := p.client.Api.CreateMessage(params)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to send SMS").
			Mark(ierr.ErrProvider)
	}

	return &SentMessage{
		Sid:    lo.FromPtr(resp.Sid),
		Status: lo.FromPtr(resp.Status),
	}, nil
}
