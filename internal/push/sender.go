package push

import (
	"context"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/httpclient"
	"github.com/youngchun/callforward/internal/logger"
)

// Payload is the JSON document the service worker renders as a notification
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Sender delivers a payload to one browser subscription
type Sender interface {
	// Enabled reports whether VAPID credentials are configured
	Enabled() bool
	// Send returns an *httpclient.Error for non-2xx push service responses
	Send(ctx context.Context, sub *pushsubscription.Subscription, payload []byte) error
}

type webPushSender struct {
	cfg    config.PushConfig
	client *http.Client
	logger *logger.Logger
}

func NewSender(cfg *config.Configuration, logger *logger.Logger) Sender {
	return &webPushSender{
		cfg:    cfg.Push,
		client: httpclient.NewRetryableClient(httpclient.DefaultClientConfig(), logger),
		logger: logger,
	}
}

func (s *webPushSender) Enabled() bool {
	return s.cfg.Enabled()
}

func (s *webPushSender) Send(ctx context.Context, sub *pushsubscription.Subscription, payload []byte) error {
	if !s.Enabled() {
		return ierr.NewError("vapid keys are not configured").
			WithHint("Web push is not configured").
			Mark(ierr.ErrConfiguration)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Contact,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to deliver push notification").
			Mark(ierr.ErrProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return httpclient.NewError(resp.StatusCode, body)
	}

	s.logger.Debugw("push notification delivered",
		"status_code", resp.StatusCode,
		"subscription_id", sub.ID,
	)
	return nil
}

// IsGone reports whether the push service dropped the subscription for good
func IsGone(err error) bool {
	httpErr, ok := httpclient.IsHTTPError(err)
	return ok && (httpErr.StatusCode == http.StatusGone || httpErr.StatusCode == http.StatusNotFound)
}
