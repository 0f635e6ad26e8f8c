package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is a map-backed RedisClient for middleware tests
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func setupIdempotentRouter(rdb RedisClient, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/orders", Idempotency(DefaultIdempotencyConfig(rdb)), handler)
	return router
}

func post(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_MissingKey(t *testing.T) {
	router := setupIdempotentRouter(newFakeRedis(), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "1"})
	})

	w := post(router, "", `{"a":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdempotency_ReplayReturnsCachedResponse(t *testing.T) {
	calls := 0
	router := setupIdempotentRouter(newFakeRedis(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	w1 := post(router, "key-1", `{"a":1}`)
	require.Equal(t, http.StatusCreated, w1.Code)

	w2 := post(router, "key-1", `{"a":1}`)
	assert.Equal(t, http.StatusCreated, w2.Code)
	assert.Equal(t, w1.Body.String(), w2.Body.String())
	assert.Equal(t, 1, calls, "handler must run exactly once")
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	router := setupIdempotentRouter(newFakeRedis(), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	post(router, "key-1", `{"a":1}`)
	w := post(router, "key-1", `{"a":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIdempotency_DistinctKeysRunIndependently(t *testing.T) {
	calls := 0
	router := setupIdempotentRouter(newFakeRedis(), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusCreated, gin.H{"call": calls})
	})

	post(router, "key-1", `{"a":1}`)
	post(router, "key-2", `{"a":1}`)
	assert.Equal(t, 2, calls)
}
