package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/walidkhelifa/consulink/pkg/errors"
	"github.com/walidkhelifa/consulink/pkg/response"
)

// RateLimit limits requests per (clientIP, path) within a fixed window using
// the supplied store. When the store is shared (database-backed), the limit
// holds across instances.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "http_rate:" + c.ClientIP() + "|" + c.FullPath()
		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			// Failing open beats refusing every request when the store is down.
			c.Next()
			return
		}

		remaining := maxRequests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > maxRequests {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
