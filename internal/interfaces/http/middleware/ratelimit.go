package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"leadsync/internal/shared/constants"
	"leadsync/internal/shared/logger"
	"leadsync/internal/shared/utils"
)

// RateLimiter caps requests per signed-in user with a fixed-window counter
// in Redis, so every instance sharing the server shares the budget.
type RateLimiter struct {
	redisClient *redis.Client
	scope       string
	limit       int
	window      time.Duration
	now         func() time.Time
	logger      logger.Interface
}

func NewRateLimiter(redisClient *redis.Client, scope string, limit int, window time.Duration, log logger.Interface) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	return &RateLimiter{
		redisClient: redisClient,
		scope:       scope,
		limit:       limit,
		window:      window,
		now:         time.Now,
		logger:      log,
	}
}

// Limit must run after RequireSession or RequirePermission; it falls back to
// the client IP when no user is set.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.redisClient == nil || rl.limit <= 0 {
			c.Next()
			return
		}

		who := c.ClientIP()
		if id, ok := c.Get(constants.ContextKeyUserID); ok {
			who = fmt.Sprintf("user:%v", id)
		}
		bucket := rl.now().Unix() / int64(rl.window.Seconds())
		key := fmt.Sprintf("leadsync:ratelimit:%s:%s:%d", rl.scope, who, bucket)

		ctx := c.Request.Context()
		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// an unreachable Redis must not block sends
			rl.logger.Warnw("rate limit counter unavailable", "scope", rl.scope, "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rl.redisClient.Expire(ctx, key, rl.window+time.Second)
		}

		if count > int64(rl.limit) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
