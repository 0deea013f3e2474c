package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
)

// NumberHandler handles number lifecycle cron jobs
type NumberHandler struct {
	sweepService service.SweepService
	logger       *logger.Logger
}

// NewNumberHandler creates a new number cron handler
func NewNumberHandler(sweepService service.SweepService, logger *logger.Logger) *NumberHandler {
	return &NumberHandler{
		sweepService: sweepService,
		logger:       logger,
	}
}

// ReleaseExpired releases the numbers of bindings past their expiry
func (h *NumberHandler) ReleaseExpired(c *gin.Context) {
	h.logger.Infow("starting expired number release cron job")

	resp, err := h.sweepService.Sweep(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to release expired numbers",
			"error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed expired number release cron job",
		"checked", resp.Checked,
		"released", resp.Released,
		"failed", resp.Failed)
	c.JSON(http.StatusOK, resp)
}
