package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api/dto"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
)

type UserSettingsHandler struct {
	userSettingsService service.UserSettingsService
	logger              *logger.Logger
}

func NewUserSettingsHandler(userSettingsService service.UserSettingsService, logger *logger.Logger) *UserSettingsHandler {
	return &UserSettingsHandler{
		userSettingsService: userSettingsService,
		logger:              logger,
	}
}

func (h *UserSettingsHandler) SaveTravelSettings(c *gin.Context) {
	var req dto.SaveTravelSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserID = c.Param("user_id")

	resp, err := h.userSettingsService.SaveTravelSettings(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserSettingsHandler) GetTravelSettings(c *gin.Context) {
	resp, err := h.userSettingsService.GetTravelSettings(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CompletePrepare records that the user finished the pre-departure checklist
func (h *UserSettingsHandler) CompletePrepare(c *gin.Context) {
	var req dto.CompletePrepareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}
	req.UserID = c.Param("user_id")

	resp, err := h.userSettingsService.CompletePrepare(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *UserSettingsHandler) GetPrepareStatus(c *gin.Context) {
	resp, err := h.userSettingsService.GetPrepareStatus(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
