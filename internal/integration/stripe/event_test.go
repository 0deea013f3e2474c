package stripe

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

func newEvent(t *testing.T, id string, eventType stripe.EventType, object string) *stripe.Event {
	t.Helper()
	return &stripe.Event{
		ID:      id,
		Type:    eventType,
		Created: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).Unix(),
		Data:    &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

func TestDecodeSubscriptionUpdated(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	object, err := json.Marshal(map[string]any{
		"id":       "sub_1",
		"object":   "subscription",
		"customer": "cus_1",
		"status":   "active",
		"metadata": map[string]string{"user_id": "u1"},
		"items": map[string]any{
			"object": "list",
			"data": []map[string]any{{
				"id":                   "si_1",
				"object":               "subscription_item",
				"current_period_start": start.Unix(),
				"current_period_end":   end.Unix(),
			}},
		},
	})
	require.NoError(t, err)

	got, err := DecodeLifecycleEvent(newEvent(t, "evt_1", stripe.EventTypeCustomerSubscriptionUpdated, string(object)))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "evt_1", got.EventID)
	assert.Equal(t, "sub_1", got.SubscriptionID)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, types.SubscriptionStatusActive, got.Status)
	require.NotNil(t, got.PeriodStart)
	require.NotNil(t, got.PeriodEnd)
	assert.True(t, got.PeriodStart.Equal(start))
	assert.True(t, got.PeriodEnd.Equal(end))
}

func TestDecodeSubscriptionDeletedIsCanceled(t *testing.T) {
	object := `{"id":"sub_1","object":"subscription","customer":"cus_1","status":"active"}`

	got, err := DecodeLifecycleEvent(newEvent(t, "evt_2", stripe.EventTypeCustomerSubscriptionDeleted, object))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.SubscriptionStatusCanceled, got.Status)
	assert.Nil(t, got.PeriodEnd)
}

func TestDecodeSubscriptionPastDueIsPending(t *testing.T) {
	object := `{"id":"sub_1","object":"subscription","customer":{"id":"cus_1","object":"customer"},"status":"past_due"}`

	got, err := DecodeLifecycleEvent(newEvent(t, "evt_3", stripe.EventTypeCustomerSubscriptionUpdated, object))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.SubscriptionStatusPending, got.Status)
	assert.Equal(t, "cus_1", got.CustomerID)
}

func TestDecodeCheckoutSessionCompleted(t *testing.T) {
	object := `{
		"id": "cs_1",
		"object": "checkout.session",
		"mode": "subscription",
		"payment_status": "paid",
		"subscription": "sub_1",
		"customer": "cus_1",
		"client_reference_id": "u1"
	}`

	got, err := DecodeLifecycleEvent(newEvent(t, "evt_4", stripe.EventTypeCheckoutSessionCompleted, object))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sub_1", got.SubscriptionID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, types.SubscriptionStatusActive, got.Status)
	assert.Nil(t, got.PeriodEnd)
}

func TestDecodeCheckoutSessionPaymentModeIsIgnored(t *testing.T) {
	object := `{"id":"cs_2","object":"checkout.session","mode":"payment","payment_status":"paid"}`

	got, err := DecodeLifecycleEvent(newEvent(t, "evt_5", stripe.EventTypeCheckoutSessionCompleted, object))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeInvoicePaid(t *testing.T) {
	end := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	object, err := json.Marshal(map[string]any{
		"id":       "in_1",
		"object":   "invoice",
		"customer": "cus_1",
		"parent": map[string]any{
			"type": "subscription_details",
			"subscription_details": map[string]any{
				"subscription": "sub_1",
				"metadata":     map[string]string{"user_id": "u1"},
			},
		},
		"lines": map[string]any{
			"object": "list",
			"data": []map[string]any{{
				"id":     "il_1",
				"object": "line_item",
				"period": map[string]any{"start": end.AddDate(0, -1, 0).Unix(), "end": end.Unix()},
			}},
		},
	})
	require.NoError(t, err)

	got, err := DecodeLifecycleEvent(newEvent(t, "evt_6", stripe.EventTypeInvoicePaid, string(object)))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sub_1", got.SubscriptionID)
	assert.Equal(t, types.SubscriptionStatusActive, got.Status)
	require.NotNil(t, got.PeriodEnd)
	assert.True(t, got.PeriodEnd.Equal(end))
}

func TestDecodeUnhandledEvent(t *testing.T) {
	got, err := DecodeLifecycleEvent(newEvent(t, "evt_7", stripe.EventType("customer.created"), `{"id":"cus_1"}`))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, err := DecodeLifecycleEvent(newEvent(t, "evt_8", stripe.EventTypeCustomerSubscriptionUpdated, `{"id": 12`))
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}
