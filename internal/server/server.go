package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"example.com/inventory-assistant/backend/internal/auth"
	"example.com/inventory-assistant/backend/internal/config"
	"example.com/inventory-assistant/backend/internal/engine"
	"example.com/inventory-assistant/backend/internal/gateway"
	"example.com/inventory-assistant/backend/internal/handlers"
	"example.com/inventory-assistant/backend/internal/notifications"
	"example.com/inventory-assistant/backend/internal/repository"
)

// New собирает HTTP-сервер Echo с роутами и зависимостями.
// redisClient может быть nil: тогда лимиты запросов считаются в памяти процесса.
func New(cfg config.Config, logger *slog.Logger, db *pgxpool.Pool, redisClient *redis.Client) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	verifier := auth.NewSessionVerifier(cfg.Auth.SessionSecret, cfg.Auth.SessionIssuer, cfg.Auth.SessionAudience)
	inventoryRepo := repository.NewInventoryRepository(db)
	eventRepo := repository.NewAssistantEventRepository(db)
	notificationHub := notifications.NewHub()

	environment := gateway.ResolveEnvironment(cfg.AI.Environment)
	costs := gateway.DefaultCostPolicy().WithOverrides(environment, cfg.AI.MaxRequestUSD, cfg.AI.MonthlyLimitUSD)
	spend := newSpendSource(cfg.AI, db, logger)

	sinks := gateway.MultiSink{
		gateway.NewLogSink(logger),
		gateway.NewAuditSink(eventRepo, logger),
		gateway.NewBroadcastSink(notificationHub),
	}

	assistantGateway := gateway.New(
		gateway.Policy{Enabled: cfg.AI.Enabled, Environment: cfg.AI.Environment, Costs: costs},
		spend,
		gateway.NewSessionResolver(cfg.Remote.BaseURL, cfg.Remote.AnonKey),
		gateway.NewHTTPDispatcher(cfg.Remote.Timeout),
		engine.New(inventoryRepo, logger),
		sinks,
		logger,
	)

	assistantHandler := handlers.NewAssistantHandler(assistantGateway)
	eventStreamHandler := handlers.NewEventStreamHandler(notificationHub, inventoryRepo, logger)
	adminHandler := handlers.NewAdminHandler(eventRepo, handlers.BudgetView{
		Enabled:     cfg.AI.Enabled,
		Environment: environment,
		Costs:       costs,
		Spend:       spend,
	})

	registerRoutes(
		e,
		db,
		assistantHandler,
		eventStreamHandler,
		adminHandler,
		auth.SessionMiddleware(verifier, logger),
		adminKeyAuth(cfg.Admin),
		aiRateLimiter(cfg.AI, redisClient, logger),
	)

	return e
}

func newSpendSource(cfg config.AIConfig, db *pgxpool.Pool, logger *slog.Logger) gateway.SpendSource {
	static := gateway.StaticSpend{
		EstimatedRequestUSD: cfg.EstimatedRequestUSD,
		ProjectedMonthlyUSD: cfg.ProjectedMonthlyUSD,
	}
	if !cfg.UseLedger {
		return static
	}
	return gateway.NewLedgerSpend(repository.NewLedgerRepository(db), static, logger)
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func adminKeyAuth(cfg config.AdminConfig) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-Admin-Key",
		Validator: func(key string, c echo.Context) (bool, error) {
			return auth.CompareAPIKey(cfg.APIKeyHash, key), nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid admin key"})
		},
	})
}
