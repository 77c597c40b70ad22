package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"smartcontract-gateway.backend/internal/interfaces/http/response"
	"smartcontract-gateway.backend/pkg/logger"
	"smartcontract-gateway.backend/pkg/redis"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	// LockDuration is the time we hold the lock while processing
	LockDuration = 30 * time.Second
	// DefaultRetention is how long a stored response is replayed
	DefaultRetention = 24 * time.Hour

	processingMarker = "processing"
	committedKey     = "idempotency_committed"
)

var (
	redisGet   = redis.Get
	redisSet   = redis.Set
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

type storedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// MarkCommitted flags that the request already caused an irreversible side
// effect, so its response is stored whatever the status.
func MarkCommitted(c *gin.Context) {
	c.Set(committedKey, true)
}

// IdempotencyMiddleware replays the stored response of a request carrying an
// already seen Idempotency-Key. Keys are scoped to the authenticated subject.
// Failed (non-2xx) responses are not stored so the client may retry, unless
// the handler marked the request as committed.
func IdempotencyMiddleware(retention time.Duration) gin.HandlerFunc {
	if retention <= 0 {
		retention = DefaultRetention
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		subject, _ := GetSubject(c)
		storageKey := fmt.Sprintf("idempotency:%s:%s:%s", subject, c.FullPath(), key)
		ctx := c.Request.Context()

		val, err := redisGet(ctx, storageKey)
		switch {
		case err == nil && val == processingMarker:
			response.ErrorWithError(c, http.StatusConflict, "ERR_IDEMPOTENCY_CONFLICT", "Request already in progress")
			return
		case err == nil:
			var stored storedResponse
			if jsonErr := json.Unmarshal([]byte(val), &stored); jsonErr != nil {
				logger.Warn(ctx, "Discarding unreadable idempotent response", zap.String("key", storageKey), zap.Error(jsonErr))
				_ = redisDel(ctx, storageKey)
				break
			}
			c.Header("X-Idempotency-Hit", "true")
			c.Data(stored.Status, "application/json; charset=utf-8", []byte(stored.Body))
			c.Abort()
			return
		case !errors.Is(err, redis.Nil):
			// redis unavailable: process without idempotency
			logger.Warn(ctx, "Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		acquired, err := redisSetNX(ctx, storageKey, processingMarker, LockDuration)
		if err != nil || !acquired {
			response.ErrorWithError(c, http.StatusConflict, "ERR_IDEMPOTENCY_CONFLICT", "Request already in progress")
			return
		}

		w := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		status := c.Writer.Status()
		if (status >= 200 && status < 300) || c.GetBool(committedKey) {
			payload, _ := json.Marshal(storedResponse{Status: status, Body: w.body.String()})
			if err := redisSet(ctx, storageKey, string(payload), retention); err != nil {
				logger.Warn(ctx, "Failed to store idempotent response", zap.Error(err))
			}
			return
		}
		_ = redisDel(ctx, storageKey)
	}
}
