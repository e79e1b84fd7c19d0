package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	AI       AIConfig
	Remote   RemoteConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	SessionSecret   string
	SessionIssuer   string
	SessionAudience string
}

type AIConfig struct {
	Enabled             bool
	Environment         string
	EstimatedRequestUSD float64
	ProjectedMonthlyUSD float64
	// Нулевые значения означают лимиты окружения по умолчанию.
	MonthlyLimitUSD    float64
	MaxRequestUSD      float64
	UseLedger          bool
	RateLimitPerMinute int
	RateLimitBurst     int
}

type RemoteConfig struct {
	BaseURL string
	AnonKey string
	Timeout time.Duration
}

type AdminConfig struct {
	APIKeyHash string
}

// Load загружает конфигурацию приложения из окружения и .env.
func Load() (Config, error) {
	cfg := Config{}

	if err := loadEnv(); err != nil {
		return cfg, err
	}

	cfg.Env = getEnv("APP_ENV", "local")

	serverPort, err := parseIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return cfg, err
	}

	readTimeout, err := parseDurationEnv("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return cfg, err
	}

	writeTimeout, err := parseDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	idleTimeout, err := parseDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "0.0.0.0"),
		Port:         serverPort,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	dbPort, err := parseIntEnv("DB_PORT", 5432)
	if err != nil {
		return cfg, err
	}

	maxOpenConns, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return cfg, err
	}

	maxIdleConns, err := parseIntEnv("DB_MAX_IDLE_CONNS", 2)
	if err != nil {
		return cfg, err
	}

	connMaxIdleTime, err := parseDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return cfg, err
	}

	connMaxLifetime, err := parseDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return cfg, err
	}

	cfg.Database = DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            dbPort,
		User:            getEnv("DB_USER", "inventory"),
		Password:        getEnv("DB_PASSWORD", "inventory"),
		Name:            getEnv("DB_NAME", "inventory"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxIdleTime: connMaxIdleTime,
		ConnMaxLifetime: connMaxLifetime,
	}

	cfg.Redis = RedisConfig{
		URL: getEnv("REDIS_URL", ""),
	}

	supabaseURL := strings.TrimRight(strings.TrimSpace(getEnv("SUPABASE_URL", "")), "/")

	defaultIssuer := ""
	if supabaseURL != "" {
		defaultIssuer = supabaseURL + "/auth/v1"
	}

	cfg.Auth = AuthConfig{
		SessionSecret:   getEnv("SUPABASE_JWT_SECRET", ""),
		SessionIssuer:   getEnv("SESSION_ISSUER", defaultIssuer),
		SessionAudience: getEnv("SESSION_AUDIENCE", "authenticated"),
	}

	enabled, err := parseBoolEnv("AI_ENABLED", true)
	if err != nil {
		return cfg, err
	}

	estimated, err := parseFloatEnv("AI_ESTIMATED_REQUEST_USD", 0.001)
	if err != nil {
		return cfg, err
	}

	projected, err := parseFloatEnv("AI_PROJECTED_MONTHLY_USD", 0)
	if err != nil {
		return cfg, err
	}

	monthlyLimit, err := parseFloatEnv("AI_MONTHLY_LIMIT_USD", 0)
	if err != nil {
		return cfg, err
	}

	maxRequest, err := parseFloatEnv("AI_MAX_REQUEST_USD", 0)
	if err != nil {
		return cfg, err
	}

	useLedger, err := parseBoolEnv("AI_USE_LEDGER", false)
	if err != nil {
		return cfg, err
	}

	aiRateLimitPerMinute, err := parseIntEnv("AI_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return cfg, err
	}

	aiRateLimitBurst, err := parseIntEnv("AI_RATE_LIMIT_BURST", 10)
	if err != nil {
		return cfg, err
	}

	cfg.AI = AIConfig{
		Enabled:             enabled,
		Environment:         getEnv("AI_ENVIRONMENT", cfg.Env),
		EstimatedRequestUSD: estimated,
		ProjectedMonthlyUSD: projected,
		MonthlyLimitUSD:     monthlyLimit,
		MaxRequestUSD:       maxRequest,
		UseLedger:           useLedger,
		RateLimitPerMinute:  aiRateLimitPerMinute,
		RateLimitBurst:      aiRateLimitBurst,
	}

	remoteTimeout, err := parseDurationEnv("AI_REMOTE_TIMEOUT", 8*time.Second)
	if err != nil {
		return cfg, err
	}

	cfg.Remote = RemoteConfig{
		BaseURL: supabaseURL,
		AnonKey: strings.TrimSpace(getEnv("SUPABASE_ANON_KEY", "")),
		Timeout: remoteTimeout,
	}

	cfg.Admin = AdminConfig{
		APIKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных.
func (c DatabaseConfig) DSN() string {
	user := url.UserPassword(c.User, c.Password)
	dsn := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	return dsn.String() + "?" + query.Encode()
}

func (c Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be greater than 0")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS cannot exceed DB_MAX_OPEN_CONNS")
	}

	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	if c.AI.RateLimitPerMinute <= 0 {
		return fmt.Errorf("AI_RATE_LIMIT_PER_MINUTE must be greater than 0")
	}

	if c.AI.RateLimitBurst <= 0 {
		return fmt.Errorf("AI_RATE_LIMIT_BURST must be greater than 0")
	}

	if c.Remote.BaseURL != "" {
		parsed, err := url.Parse(c.Remote.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("SUPABASE_URL must be an absolute URL")
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}

	return parsed, nil
}

// parseFloatEnv разбирает денежные значения в USD; отрицательные и нечисловые отклоняются.
func parseFloatEnv(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}

	if math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", key)
	}

	return parsed, nil
}

// parseBoolEnv выключает флаг только явным "false"/"0"/"off"/"no".
func parseBoolEnv(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true, nil
	case "false", "0", "off", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean", key)
	}
}

func loadEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}
