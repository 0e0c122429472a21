package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelink/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	IdempotenceHeader = "X-Idempotence"
	idempotenceTTL    = 60 * time.Second
)

// KeyStore is the part of the redis client the idempotence guard needs.
type KeyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Idempotence rejects a POST identical to one that is in flight or succeeded in
// the last minute. Double-submitted create forms are the usual cause.
func Idempotence(store KeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		storeKey := "idempotence:" + key
		ctx := c.Request.Context()

		stored, err := store.SetNX(ctx, storeKey, "0", idempotenceTTL)
		if err != nil {
			c.Next()
			return
		}
		if !stored {
			msg := "Identical request already succeeded, retry after 60 seconds"
			if val, _ := store.Get(ctx, storeKey); val == "0" {
				msg = "Identical request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			_ = store.Set(ctx, storeKey, "1", idempotenceTTL)
		} else {
			_ = store.Del(ctx, storeKey)
		}
	}
}

// resolveIdempotenceKey hashes the request identity. An explicit X-Idempotence
// value is scoped to the route and the caller (token, or client IP when
// anonymous). Anonymous requests without the header are not guarded.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	token := NormalizeToken(c.GetHeader("Authorization"))

	if hdr := c.GetHeader(IdempotenceHeader); hdr != "" {
		caller := "token:" + token
		if token == "" {
			caller = "ip:" + c.ClientIP()
		}
		return hashKey("hdr", c.FullPath(), caller, hdr), nil
	}

	if token == "" {
		return "", nil
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	return hashKey(c.Request.Method, c.Request.URL.String(), string(body), token), nil
}

func hashKey(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}
