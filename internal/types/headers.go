package types

const (
	HeaderRequestID       = "X-Request-ID"
	HeaderAPIKey          = "x-api-key"
	HeaderCronSecret      = "X-Cron-Secret"
	HeaderInternalToken   = "X-Internal-Token"
	HeaderStripeSignature = "Stripe-Signature"
	HeaderTwilioSignature = "X-Twilio-Signature"
)
