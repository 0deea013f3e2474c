package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/config"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/telephony"
	"github.com/youngchun/callforward/internal/types"
)

// TwilioSignatureMiddleware rejects webhook requests whose X-Twilio-Signature does
// not match the public URL and form body. It is a no-op unless twilio.validate_signature is set.
func TwilioSignatureMiddleware(cfg *config.Configuration, validator telephony.SignatureValidator, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Twilio.ValidateSignature {
			c.Next()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			_ = c.Error(ierr.WithError(err).
				WithHint("Invalid form body").
				Mark(ierr.ErrValidation))
			c.Abort()
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for k, v := range c.Request.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		url := publicURL(cfg, c)
		if !validator.Validate(url, params, c.GetHeader(types.HeaderTwilioSignature)) {
			log.Warnw("rejected twilio request with invalid signature",
				"url", url,
				"client_ip", c.ClientIP(),
			)
			_ = c.Error(ierr.NewError("invalid twilio signature").
				WithHint("Invalid request signature").
				Mark(ierr.ErrUnauthorized))
			c.Abort()
			return
		}
		c.Next()
	}
}

// publicURL rebuilds the URL Twilio requested, which differs from the local one behind a proxy
func publicURL(cfg *config.Configuration, c *gin.Context) string {
	base := strings.TrimRight(cfg.Twilio.PublicBaseURL, "/")
	if base == "" {
		scheme := c.GetHeader("X-Forwarded-Proto")
		if scheme == "" {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + c.Request.URL.RequestURI()
}
