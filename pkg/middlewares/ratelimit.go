package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teachermoments/moments/pkg/commons"
	"github.com/teachermoments/moments/pkg/connectors"
	"github.com/teachermoments/moments/pkg/utils"
)

// rateLimitWindow is the fixed window for the per-IP counter.
const rateLimitWindow = time.Hour

// RateLimit is a redis-backed fixed-window limiter keyed by client IP,
// used as a precaution on the emailing and authentication routes. A redis
// outage fails open: limiting is protection, not a correctness requirement.
func RateLimit(redis connectors.RedisConnector, logger commons.Logger, maxPerWindow int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())
		ctx := c.Request.Context()
		client := redis.Client()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warnf("rate limiter unavailable, failing open: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, rateLimitWindow)
		}

		if count > int64(maxPerWindow) {
			logger.Warnf("rate limit reached: key=%s count=%d", key, count)
			utils.Error(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}
