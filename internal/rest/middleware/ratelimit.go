package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/cache"
	"github.com/youngchun/callforward/internal/config"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/logger"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long the limiter of a quiet client is kept
const limiterIdleTTL = 10 * time.Minute

// RateLimitMiddleware keeps one token bucket per client IP in the cache.
// A non-positive rate disables limiting.
func RateLimitMiddleware(name string, limit config.RateLimit, c cache.Cache, log *logger.Logger) gin.HandlerFunc {
	if limit.PerMinute <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	every := rate.Every(time.Minute / time.Duration(limit.PerMinute))
	burst := max(limit.Burst, 1)

	return func(ctx *gin.Context) {
		key := cache.GenerateKey(cache.PrefixRateLimit, name, ctx.ClientIP())
		limiter := c.GetOrCreate(ctx.Request.Context(), key, limiterIdleTTL, func() interface{} {
			return rate.NewLimiter(every, burst)
		}).(*rate.Limiter)

		// refresh the ttl so active clients keep their bucket
		c.Set(ctx.Request.Context(), key, limiter, limiterIdleTTL)

		if !limiter.Allow() {
			log.Warnw("rate limited request",
				"limiter", name,
				"client_ip", ctx.ClientIP(),
				"path", ctx.FullPath(),
			)
			_ = ctx.Error(ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, please try again later").
				Mark(ierr.ErrRateLimited))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
