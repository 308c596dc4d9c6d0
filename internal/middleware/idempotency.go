package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader is the header POS terminals send on mutating
	// requests so a retried request never posts twice.
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyTTL         = 24 * time.Hour
	idempotencyPlaceholder = "processing"
)

// IdempotencyStore keeps completed responses in Redis keyed by the client's
// idempotency key.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, prefix: "idempotency:"}
}

// claim marks the key as in-flight. It returns the cached response when a
// previous request with the same key already completed, and replay=false
// when this request is the first claimant.
func (s *IdempotencyStore) claim(c *gin.Context, key string) (replay bool, cached []byte, err error) {
	fullKey := s.prefix + key

	set, err := s.client.SetNX(c.Request.Context(), fullKey, idempotencyPlaceholder, idempotencyTTL).Result()
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(c.Request.Context(), fullKey).Bytes()
	if err != nil && err != redis.Nil {
		return false, nil, err
	}
	return true, existing, nil
}

// store saves the final response body under the key.
func (s *IdempotencyStore) store(c *gin.Context, key string, body []byte) error {
	return s.client.Set(c.Request.Context(), s.prefix+key, body, idempotencyTTL).Err()
}

// release drops the in-flight claim so a retry can run the request again.
func (s *IdempotencyStore) release(c *gin.Context, key string) {
	_ = s.client.Del(c.Request.Context(), s.prefix+key).Err()
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for mutating requests that repeat
// an Idempotency-Key. Keys are scoped to method and path so the same key on
// a different endpoint is a different request.
func Idempotency(store *IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}
		headerKey := c.GetHeader(IdempotencyKeyHeader)
		if headerKey == "" {
			c.Next()
			return
		}
		key := c.Request.Method + ":" + c.Request.URL.Path + ":" + headerKey

		logger := GetLoggerFromCtx(c.Request.Context())

		replay, cached, err := store.claim(c, key)
		if err != nil {
			logger.Error("Idempotency check failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Idempotency check failed"})
			return
		}
		if replay {
			if len(cached) == 0 || string(cached) == idempotencyPlaceholder {
				// The first request with this key is still running.
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this idempotency key is already in progress"})
				return
			}
			c.Header("X-Idempotency-Replay", "true")
			c.Data(http.StatusOK, "application/json", cached)
			c.Abort()
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			if err := store.store(c, key, writer.body.Bytes()); err != nil {
				logger.Error("Failed to store idempotent response", "error", err)
			}
			return
		}
		// Failed requests may be retried, so give the key back.
		store.release(c, key)
	}
}
