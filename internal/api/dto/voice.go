package dto

// InboundCallRequest is the subset of the Twilio voice webhook form the service reads
type InboundCallRequest struct {
	CallSid string `form:"CallSid"`
	From    string `form:"From"`
	To      string `form:"To"`
}

// SMSStatusCallback is the Twilio message status callback form.
// Older accounts send the Sms* names.
type SMSStatusCallback struct {
	AttemptID     string `form:"-"`
	MessageSid    string `form:"MessageSid"`
	SmsSid        string `form:"SmsSid"`
	MessageStatus string `form:"MessageStatus"`
	SmsStatus     string `form:"SmsStatus"`
	ErrorCode     string `form:"ErrorCode"`
}

// Sid returns MessageSid, falling back to SmsSid
func (c SMSStatusCallback) Sid() string {
	if c.MessageSid != "" {
		return c.MessageSid
	}
	return c.SmsSid
}

// Status returns MessageStatus, falling back to SmsStatus
func (c SMSStatusCallback) Status() string {
	if c.MessageStatus != "" {
		return c.MessageStatus
	}
	return c.SmsStatus
}
