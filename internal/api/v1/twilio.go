package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
)

const twimlContentType = "text/xml; charset=utf-8"

type TwilioHandler struct {
	voiceService        service.VoiceService
	notificationService service.NotificationService
	logger              *logger.Logger
}

func NewTwilioHandler(
	voiceService service.VoiceService,
	notificationService service.NotificationService,
	logger *logger.Logger,
) *TwilioHandler {
	return &TwilioHandler{
		voiceService:        voiceService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// Voice answers an inbound call with the auto reply TwiML
func (h *TwilioHandler) Voice(c *gin.Context) {
	var req dto.InboundCallRequest
	if err := c.ShouldBind(&req); err != nil {
		// the caller still hears the reply
		h.logger.Warnw("failed to bind voice webhook", "error", err)
	}

	twiml, err := h.voiceService.HandleInboundCall(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.Data(http.StatusOK, twimlContentType, []byte(twiml))
}

// SMSStatus stores a delivery status callback. It answers 200 even on failure,
// Twilio retries would not fix a missing attempt.
func (h *TwilioHandler) SMSStatus(c *gin.Context) {
	var callback dto.SMSStatusCallback
	if err := c.ShouldBind(&callback); err != nil {
		h.logger.Warnw("failed to bind sms status callback", "error", err)
	}
	callback.AttemptID = c.Query("attempt_id")

	if err := h.notificationService.RecordDeliveryStatus(c.Request.Context(), callback); err != nil {
		h.logger.Warnw("sms status callback not recorded",
			"error", err,
			"attempt_id", callback.AttemptID,
		)
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
