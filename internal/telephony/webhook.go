package telephony

import (
	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"
)

// SignatureValidator checks X-Twilio-Signature headers
type SignatureValidator interface {
	Validate(url string, params map[string]string, signature string) bool
}

type twilioSignatureValidator struct {
	validator client.RequestValidator
}

func NewSignatureValidator(authToken string) SignatureValidator {
	return &twilioSignatureValidator{validator: client.NewRequestValidator(authToken)}
}

func (v *twilioSignatureValidator) Validate(url string, params map[string]string, signature string) bool {
	return v.validator.Validate(url, params, signature)
}

// AutoReplyTwiML renders the voice response played to a caller before hanging up
func AutoReplyTwiML(message string) (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: message},
		&twiml.VoiceHangup{},
	})
}
