package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/devicelink/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

// Counter is the part of the redis client the rate limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimit allows max requests per client IP and route within each fixed window.
// Store failures let the request through.
func RateLimit(store Counter, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || max <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		bucket := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("rate_limit:%s:%s:%d", c.FullPath(), ip, bucket)

		count, err := store.Incr(c.Request.Context(), key, window+time.Second)
		if err != nil {
			c.Next()
			return
		}

		if count > int64(max) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
