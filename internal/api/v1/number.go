package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
)

type NumberHandler struct {
	assignmentService service.AssignmentService
	logger            *logger.Logger
}

func NewNumberHandler(assignmentService service.AssignmentService, logger *logger.Logger) *NumberHandler {
	return &NumberHandler{
		assignmentService: assignmentService,
		logger:            logger,
	}
}

// AssignAll makes sure every entitled subscriber holds a number
func (h *NumberHandler) AssignAll(c *gin.Context) {
	h.logger.Infow("starting number assignment for active subscriptions")

	resp, err := h.assignmentService.AssignAllActive(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to assign numbers", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
