package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/api/dto"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/service"
	"github.com/youngchun/callforward/internal/types"
)

// maxWebhookBodyBytes matches the largest payload Stripe documents for webhook events
const maxWebhookBodyBytes = 512 * 1024

type StripeHandler struct {
	webhookService  service.StripeWebhookService
	checkoutService service.CheckoutService
	logger          *logger.Logger
}

func NewStripeHandler(
	webhookService service.StripeWebhookService,
	checkoutService service.CheckoutService,
	logger *logger.Logger,
) *StripeHandler {
	return &StripeHandler{
		webhookService:  webhookService,
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// HandleWebhook verifies and processes a Stripe event. Once the signature is
// verified the response is always 200 so Stripe does not retry processing failures.
func (h *StripeHandler) HandleWebhook(c *gin.Context) {
	signature := c.GetHeader(types.HeaderStripeSignature)
	if signature == "" {
		c.Error(ierr.NewError("missing stripe signature").
			WithHint("Missing Stripe-Signature header").
			Mark(ierr.ErrValidation))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	result, err := h.webhookService.Handle(c.Request.Context(), payload, signature)
	if err != nil {
		h.logger.Warnw("rejected stripe webhook",
			"error", err,
			"client_ip", c.ClientIP(),
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateCheckoutSession starts a subscription checkout for a user
func (h *StripeHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.checkoutService.CreateSession(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
