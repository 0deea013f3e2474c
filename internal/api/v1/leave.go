package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api/dto"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
)

type LeaveHandler struct {
	leaveService service.LeaveService
	logger       *logger.Logger
}

func NewLeaveHandler(leaveService service.LeaveService, logger *logger.Logger) *LeaveHandler {
	return &LeaveHandler{
		leaveService: leaveService,
		logger:       logger,
	}
}

// ValidateLink reports whether the leave link can still be used
func (h *LeaveHandler) ValidateLink(c *gin.Context) {
	resp, err := h.leaveService.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMessage returns a message left through a link
func (h *LeaveHandler) GetMessage(c *gin.Context) {
	resp, err := h.leaveService.GetMessage(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitMessage stores the caller's message and consumes the link
func (h *LeaveHandler) SubmitMessage(c *gin.Context) {
	var req dto.SubmitLeaveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.leaveService.Submit(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
