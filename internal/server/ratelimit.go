package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"example.com/inventory-assistant/backend/internal/auth"
	"example.com/inventory-assistant/backend/internal/config"
)

const (
	rateLimitWindow  = time.Minute
	redisCallTimeout = 500 * time.Millisecond

	rateLimitedCode    = "rate_limited"
	rateLimitedMessage = "too many requests, try again later"
)

// rateLimitedResponse повторяет форму отказа ассистента. Код rate_limited
// транспортный и отличает частоту запросов от budget_exceeded.
type rateLimitedResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// RedisRateLimiterStore хранит общий для всех инстансов счетчик с фиксированным окном.
// При недоступности Redis запросы пропускаются.
type RedisRateLimiterStore struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisRateLimiterStore создает хранилище лимитов поверх Redis.
func NewRedisRateLimiterStore(client *redis.Client, prefix string, limit int, window time.Duration, logger *slog.Logger) *RedisRateLimiterStore {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = rateLimitWindow
	}
	return &RedisRateLimiterStore{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow увеличивает счетчик окна и сообщает, укладывается ли идентификатор в лимит.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	windowStart := s.now().UTC().Truncate(s.window)
	key := fmt.Sprintf("%s:%s:%d", s.prefix, identifier, windowStart.Unix())

	pipe := s.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("rate limiter store unavailable", slog.String("error", err.Error()))
		return true, nil
	}

	return count.Val() <= s.limit, nil
}

func aiRateLimiter(cfg config.AIConfig, redisClient *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	var store middleware.RateLimiterStore
	if redisClient != nil {
		store = NewRedisRateLimiterStore(redisClient, "ratelimit:ai", cfg.RateLimitPerMinute+cfg.RateLimitBurst, rateLimitWindow, logger)
	} else {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(cfg.RateLimitPerMinute) / 60.0),
			Burst:     cfg.RateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store:               store,
		IdentifierExtractor: rateLimitIdentifier,
		DenyHandler:         rateLimitDenied,
	})
}

func rateLimitDenied(c echo.Context, _ string, _ error) error {
	c.Response().Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
	return c.JSON(http.StatusTooManyRequests, rateLimitedResponse{
		Success:   false,
		Error:     rateLimitedMessage,
		ErrorCode: rateLimitedCode,
	})
}

// rateLimitIdentifier считает лимит по пользователю, а для анонимных запросов по IP.
func rateLimitIdentifier(c echo.Context) (string, error) {
	if userID, ok := auth.UserIDFromContext(c.Request().Context()); ok {
		return "user:" + userID.String(), nil
	}
	return "ip:" + c.RealIP(), nil
}
