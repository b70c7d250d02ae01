package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayHeader      = "Idempotent-Replayed"
	idempotencyTTL    = 24 * time.Hour
	maxKeyLength      = 128
)

// storedResponse is the replayable part of a handled request.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body so it can be stored after the handler runs.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

type responseCache struct {
	client *redis.Client
	log    logrus.FieldLogger
}

func (rc responseCache) load(ctx context.Context, key string) (*storedResponse, bool) {
	data, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		rc.log.WithError(err).Warn("idempotency lookup failed")
		return nil, false
	}

	var resp storedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		rc.log.WithError(err).WithField("key", key).Warn("discarding unreadable idempotent response")
		return nil, false
	}
	return &resp, true
}

func (rc responseCache) store(ctx context.Context, key string, resp storedResponse) {
	data, err := json.Marshal(resp)
	if err == nil {
		err = rc.client.Set(ctx, key, data, idempotencyTTL).Err()
	}
	if err != nil {
		rc.log.WithError(err).Warn("failed to store idempotent response")
	}
}

// IdempotencyMiddleware replays the stored response when a mutating request
// is retried with the same Idempotency-Key. Keys are scoped to the caller,
// method and path. With a nil client the middleware does nothing.
func IdempotencyMiddleware(redisClient *redis.Client, log logrus.FieldLogger) gin.HandlerFunc {
	if redisClient == nil {
		return func(c *gin.Context) { c.Next() }
	}
	cache := responseCache{client: redisClient, log: log}

	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Idempotency-Key is too long",
				"code":  "validation_error",
			})
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyCacheKey(c, key)

		if prev, ok := cache.load(ctx, cacheKey); ok {
			c.Header(replayHeader, "true")
			contentType := prev.ContentType
			if contentType == "" {
				contentType = "application/json; charset=utf-8"
			}
			c.Data(prev.Status, contentType, prev.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		// 5xx responses (including lock contention) are retryable and never stored.
		status := rec.Status()
		if status < 200 || status >= 500 {
			return
		}
		cache.store(ctx, cacheKey, storedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func idempotencyCacheKey(c *gin.Context, key string) string {
	return "idempotency:" + c.GetString(ContextRole) + ":" + c.GetString(ContextSubject) + ":" +
		c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}
