package server

import (
	"fmt"
	"net/http"
	"time"

	"product-dashboard/internal/auth"
	"product-dashboard/internal/client"
	"product-dashboard/internal/config"
	"product-dashboard/internal/dashboard"
	custommiddleware "product-dashboard/internal/middleware"
	"product-dashboard/internal/storage"
	"product-dashboard/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	kv     storage.KV
}

// NewServer wires the dashboard API on top of the local store kv and the
// remote product API
func NewServer(cfg *config.Config, logger *zap.Logger, kv storage.KV, api client.ProductAPI) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.RateLimitMiddleware(newLimiter(cfg, kv), rateLimitConfig(cfg), logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authService := auth.NewService(kv, cfg.JWT.Secret,
		auth.WithTokenExpiry(time.Duration(cfg.JWT.Expiry)*time.Hour),
		auth.WithLatency(cfg.Auth.Latency),
		auth.WithServiceLogger(logger),
	)
	dashboards := dashboard.NewRegistry(api, cfg.Products.PageSize, logger)

	authMiddleware := custommiddleware.AuthMiddleware(authService, logger)

	transport.NewAuthHandler(authService, dashboards, logger).RegisterRoutes(router, authMiddleware)
	transport.NewProductHandler(dashboards, logger).RegisterRoutes(router, authMiddleware)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		kv:     kv,
	}
}

func rateLimitConfig(cfg *config.Config) custommiddleware.RateLimitConfig {
	return custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "rate_limit",
	}
}

// newLimiter shares counters through redis when that is the local store
func newLimiter(cfg *config.Config, kv storage.KV) custommiddleware.Limiter {
	if redisClient, ok := storage.RedisClient(kv); ok {
		return custommiddleware.NewRedisLimiter(redisClient, rateLimitConfig(cfg))
	}
	return custommiddleware.NewLocalLimiter(rateLimitConfig(cfg))
}

// Close releases the local store
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.kv != nil {
		if err := s.kv.Close(); err != nil {
			s.logger.Error("Failed to close local store", zap.Error(err))
			return err
		}
	}
	return nil
}
