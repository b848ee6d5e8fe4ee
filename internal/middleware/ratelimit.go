package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int           // Number of requests allowed per window
	Window            time.Duration // Time window for rate limiting
	KeyPrefix         string        // Redis key prefix
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Duration // until the client may retry
}

// Limiter decides whether the client identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type redisLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

// NewRedisLimiter counts requests in fixed windows shared through redis
func NewRedisLimiter(client *redis.Client, config RateLimitConfig) Limiter {
	return &redisLimiter{client: client, config: config}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	key = fmt.Sprintf("%s:%s", l.config.KeyPrefix, key)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if count == 1 {
		l.client.Expire(ctx, key, l.config.Window)
	}

	if count > int64(l.config.RequestsPerWindow) {
		ttl, err := l.client.TTL(ctx, key).Result()
		if err != nil || ttl < 0 {
			ttl = l.config.Window
		}
		return Decision{Allowed: false, Reset: ttl}, nil
	}

	return Decision{Allowed: true, Remaining: l.config.RequestsPerWindow - int(count)}, nil
}

type localLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*localClient
	lastSweep time.Time
}

type localClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter keeps a token bucket per client in memory, refilled at
// RequestsPerWindow per Window. Used when no redis is configured.
// A bucket idle for a whole window is full again and gets dropped.
func NewLocalLimiter(config RateLimitConfig) Limiter {
	return &localLimiter{
		config:  config,
		now:     time.Now,
		clients: make(map[string]*localClient),
	}
}

func (l *localLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	l.sweep(now)
	c, ok := l.clients[key]
	if !ok {
		burst := max(l.config.RequestsPerWindow, 1)
		c = &localClient{limiter: rate.NewLimiter(rate.Every(l.config.Window/time.Duration(burst)), burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	limiter := c.limiter
	l.mu.Unlock()

	if !limiter.AllowN(now, 1) {
		reservation := limiter.ReserveN(now, 1)
		delay := reservation.DelayFrom(now)
		reservation.CancelAt(now)
		return Decision{Allowed: false, Reset: delay}, nil
	}

	remaining := int(math.Floor(limiter.TokensAt(now)))
	return Decision{Allowed: true, Remaining: max(remaining, 0)}, nil
}

// sweep drops idle clients, at most once per window. Callers hold l.mu.
func (l *localLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.config.Window {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.config.Window {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// clientAddr is the host part of the remote address; the port changes with
// every connection
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware rejects clients that exceed the limiter with 429.
// It runs ahead of authentication, so clients are keyed by remote host.
func RateLimitMiddleware(limiter Limiter, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := clientAddr(r)

			decision, err := limiter.Allow(r.Context(), clientID)
			if err != nil {
				// fail open
				logger.Error("Rate limit check failed", zap.Error(err), zap.String("client_id", clientID))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
			if !decision.Allowed {
				logger.Warn("Rate limit exceeded",
					zap.String("client_id", clientID),
					zap.Int("limit", config.RequestsPerWindow),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(decision.Reset).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(decision.Reset.Seconds()))))

				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}
