package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"product-dashboard/internal/client"
	"product-dashboard/internal/config"
	"product-dashboard/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(requests int) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		Products:  config.ProductsConfig{PageSize: 5},
		JWT:       config.JWTConfig{Secret: "test-secret", Expiry: 1},
		RateLimit: config.RateLimitConfig{Requests: requests, Window: time.Minute},
	}
}

func TestHealthAndRateLimit(t *testing.T) {
	kv, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "dashboard.db"), zap.NewNop())
	require.NoError(t, err)

	srv := NewServer(testConfig(2), zap.NewNop(), kv, client.New("http://127.0.0.1:1/objects"))
	defer srv.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRedisStoreSharesRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := storage.NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())

	srv := NewServer(testConfig(5), zap.NewNop(), kv, client.New("http://127.0.0.1:1/objects"))
	defer srv.Close()

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))

	keys := mr.Keys()
	assert.NotEmpty(t, keys, "the limiter should count in redis")
}
