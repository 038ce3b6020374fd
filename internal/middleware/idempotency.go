package middleware

import (
	"bytes"    // Response body capture
	"context"  // Detached context for Redis writes
	"net/http" // HTTP status codes
	"time"     // Lock and replay TTLs

	"wallet_ledger/internal/utils" // Redis JSON helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const (
	IdempotencyHeader = "Idempotency-Key"        // Client supplied request key
	ReplayedHeader    = "X-Idempotency-Replayed" // Set on responses served from the replay store
	idempotencyLock   = 30 * time.Second         // Upper bound on one in-flight request
)

// cachedResponse is what gets replayed for a repeated key
type cachedResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
}

// bodyRecorder copies everything the handler writes
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)                  // Keep a copy
	return w.ResponseWriter.Write(b) // Send to the client
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a request repeats its Idempotency-Key.
// A second request arriving while the first is still running gets 409.
// Redis failures let the request through untouched.
func Idempotency(rdb redis.Cmdable, ttl time.Duration, log logrus.FieldLogger) gin.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader) // Get the client key
		// Requests without a key, or without Redis, are processed normally
		if key == "" || rdb == nil {
			c.Next()
			return
		}
		// Writes must land even if the client hangs up, or its retry would apply twice
		ctx := context.WithoutCancel(c.Request.Context())
		cacheKey := "idempotency:" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key // Scope key per route
		entry := log.WithField("key", key)

		// Replay a finished request
		if replayed, err := replay(ctx, c, rdb, cacheKey); err != nil {
			entry.WithError(err).Error("Failed to read idempotency key")
			c.Next() // Fail open
			return
		} else if replayed {
			entry.Info("Idempotency replay")
			return
		}

		// Claim the key so a concurrent retry cannot apply the operation twice
		locked, err := rdb.SetNX(ctx, cacheKey+":lock", "1", idempotencyLock).Result()
		if err != nil {
			entry.WithError(err).Error("Failed to lock idempotency key")
			c.Next() // Fail open
			return
		}
		if !locked {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is already in progress"})
			return
		}
		defer func() { _ = utils.DeleteCache(ctx, rdb, cacheKey+":lock") }()

		// The first request may have finished between the read above and the lock
		if replayed, err := replay(ctx, c, rdb, cacheKey); err != nil {
			entry.WithError(err).Error("Failed to read idempotency key")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Idempotency store unavailable"})
			return
		} else if replayed {
			entry.Info("Idempotency replay")
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		// Server errors are not stored so the client can retry
		if status := rec.Status(); status < http.StatusInternalServerError {
			resp := cachedResponse{StatusCode: status, Body: rec.body.Bytes()}
			if err := utils.SetCache(ctx, rdb, cacheKey, resp, ttl); err != nil {
				entry.WithError(err).Error("Failed to store idempotency key")
			}
		}
	}
}

// replay writes the stored response for cacheKey, if there is one, and aborts the chain
func replay(ctx context.Context, c *gin.Context, rdb redis.Cmdable, cacheKey string) (bool, error) {
	var cached cachedResponse
	found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
	if err != nil || !found {
		return false, err
	}
	c.Header(ReplayedHeader, "true")
	c.Data(cached.StatusCode, "application/json; charset=utf-8", cached.Body)
	c.Abort()
	return true, nil
}
