package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api/dto"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
)

type PushHandler struct {
	pushService service.PushService
	logger      *logger.Logger
}

func NewPushHandler(pushService service.PushService, logger *logger.Logger) *PushHandler {
	return &PushHandler{
		pushService: pushService,
		logger:      logger,
	}
}

// Subscribe registers a browser push subscription
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req dto.CreatePushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserAgent = c.Request.UserAgent()

	resp, err := h.pushService.Subscribe(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *PushHandler) SendTest(c *gin.Context) {
	var req dto.SendTestPushRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := h.pushService.SendTest(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
