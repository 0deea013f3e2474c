package stripe

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
	"github.com/youngchun/callforward/internal/domain/subscription"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// HandledEventTypes lists the events that move the subscription ledger
var HandledEventTypes = []stripe.EventType{
	stripe.EventTypeCheckoutSessionCompleted,
	stripe.EventTypeCustomerSubscriptionCreated,
	stripe.EventTypeCustomerSubscriptionUpdated,
	stripe.EventTypeCustomerSubscriptionDeleted,
	stripe.EventTypeInvoicePaid,
}

// IsHandled reports whether the event type is decoded into a lifecycle event
func IsHandled(eventType stripe.EventType) bool {
	return lo.Contains(HandledEventTypes, eventType)
}

// DecodeLifecycleEvent decodes a verified Stripe event into a typed lifecycle event.
// It returns nil without error for event types and objects that do not touch the ledger.
func DecodeLifecycleEvent(event *stripe.Event) (*subscription.LifecycleEvent, error) {
	if event == nil || event.Data == nil || !IsHandled(event.Type) {
		return nil, nil
	}

	base := subscription.LifecycleEvent{
		EventID:    event.ID,
		EventType:  string(event.Type),
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}

	var (
		out *subscription.LifecycleEvent
		err error
	)
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		out, err = decodeCheckoutSession(base, event.Data.Raw)
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		out, err = decodeSubscription(base, event.Data.Raw, event.Type == stripe.EventTypeCustomerSubscriptionDeleted)
	case stripe.EventTypeInvoicePaid:
		out, err = decodeInvoice(base, event.Data.Raw)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to decode Stripe event payload").
			WithReportableDetails(map[string]any{
				"event_id":   event.ID,
				"event_type": string(event.Type),
			}).
			Mark(ierr.ErrValidation)
	}
	if out == nil {
		return nil, nil
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeCheckoutSession(base subscription.LifecycleEvent, raw json.RawMessage) (*subscription.LifecycleEvent, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	// one-off payments and setup sessions never create a subscription
	if session.Mode != stripe.CheckoutSessionModeSubscription || session.Subscription == nil || session.Subscription.ID == "" {
		return nil, nil
	}

	out := base
	out.SubscriptionID = session.Subscription.ID
	out.CustomerID = customerID(session.Customer)
	out.UserID = firstNonEmpty(session.Metadata[MetadataUserID], session.ClientReferenceID)

	switch session.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		out.Status = types.SubscriptionStatusActive
	default:
		out.Status = types.SubscriptionStatusPending
	}
	return &out, nil
}

func decodeSubscription(base subscription.LifecycleEvent, raw json.RawMessage, deleted bool) (*subscription.LifecycleEvent, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, err
	}

	out := base
	out.SubscriptionID = sub.ID
	out.CustomerID = customerID(sub.Customer)
	out.UserID = sub.Metadata[MetadataUserID]
	out.Status = types.SubscriptionStatusFromStripe(string(sub.Status))
	if deleted {
		out.Status = types.SubscriptionStatusCanceled
	}

	// billing periods live on the subscription items
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil {
				continue
			}
			out.PeriodStart = laterUnix(out.PeriodStart, item.CurrentPeriodStart)
			out.PeriodEnd = laterUnix(out.PeriodEnd, item.CurrentPeriodEnd)
		}
	}
	return &out, nil
}

func decodeInvoice(base subscription.LifecycleEvent, raw json.RawMessage) (*subscription.LifecycleEvent, error) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return nil, err
	}
	if invoice.Parent == nil || invoice.Parent.SubscriptionDetails == nil ||
		invoice.Parent.SubscriptionDetails.Subscription == nil {
		return nil, nil
	}
	details := invoice.Parent.SubscriptionDetails

	out := base
	out.SubscriptionID = details.Subscription.ID
	out.CustomerID = customerID(invoice.Customer)
	out.UserID = details.Metadata[MetadataUserID]
	out.Status = types.SubscriptionStatusActive

	if invoice.Lines != nil {
		for _, line := range invoice.Lines.Data {
			if line == nil || line.Period == nil {
				continue
			}
			out.PeriodStart = laterUnix(out.PeriodStart, line.Period.Start)
			out.PeriodEnd = laterUnix(out.PeriodEnd, line.Period.End)
		}
	}
	return &out, nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func laterUnix(current *time.Time, unix int64) *time.Time {
	if unix <= 0 {
		return current
	}
	t := time.Unix(unix, 0).UTC()
	if current == nil || t.After(*current) {
		return &t
	}
	return current
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
