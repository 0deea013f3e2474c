package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/config"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/types"
)

// AdminKeyMiddleware requires the x-api-key header to match admin.api_key.
// Without a configured key every request passes.
func AdminKeyMiddleware(cfg *config.Configuration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.Admin.APIKey
		if expected == "" {
			c.Next()
			return
		}

		if !secretEqual(c.GetHeader(types.HeaderAPIKey), expected) {
			log.Warnw("rejected admin request",
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
			)
			abortUnauthorized(c, "Invalid API key")
			return
		}
		c.Next()
	}
}

// CronSecretMiddleware guards scheduler endpoints with cron.secret, passed either
// in the X-Cron-Secret header or the token query parameter.
func CronSecretMiddleware(cfg *config.Configuration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.Cron.Secret
		if expected == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(types.HeaderCronSecret)
		if provided == "" {
			provided = c.Query("token")
		}
		if !secretEqual(provided, expected) {
			log.Warnw("rejected cron request",
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
			)
			abortUnauthorized(c, "Invalid cron secret")
			return
		}
		c.Next()
	}
}

// InternalTokenMiddleware guards debug endpoints. They stay closed until push.internal_token is set.
func InternalTokenMiddleware(cfg *config.Configuration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := cfg.Push.InternalToken
		if expected == "" || !secretEqual(c.GetHeader(types.HeaderInternalToken), expected) {
			log.Warnw("rejected internal request",
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
			)
			abortUnauthorized(c, "Invalid internal token")
			return
		}
		c.Next()
	}
}

func secretEqual(provided, expected string) bool {
	return provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

func abortUnauthorized(c *gin.Context, hint string) {
	_ = c.Error(ierr.NewError("unauthorized").
		WithHint(hint).
		Mark(ierr.ErrUnauthorized))
	c.Abort()
}
