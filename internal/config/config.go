package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Logger LoggerConfig
	Auth   AuthConfig
	Redis  RedisConfig
	Otel   OtelConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

type LoggerConfig struct {
	Level     string
	Format    string
	PIIFields []string
}

// AuthConfig selects the request authentication scheme and session backend.
type AuthConfig struct {
	Scheme           string
	SessionName      string
	SessionDuration  time.Duration
	SessionStore     string
	CookieSecure     bool
	PasswordHashAlgo string
	PolicyPath       string
	ExcludedPaths    []string
}

// OtelConfig selects the OTLP exporter shared by traces and metrics.
type OtelConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	SchemeBasic   = "basic"
	SchemeSession = "session"

	StoreMemory = "memory"
	StoreDB     = "db"
	StoreRedis  = "redis"
)

// DefaultPIIFields are the log fields redacted by default.
var DefaultPIIFields = []string{"name", "email", "phone", "ssn", "password"}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	cookieSecure := environment == "production"
	if !cookieSecure {
		cookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	piiFields := parseList(getenv("PII_FIELDS", ""))
	if len(piiFields) == 0 {
		piiFields = append([]string(nil), DefaultPIIFields...)
	}

	return Config{
		AppName:     getenv("APP_SERVICE", "authgate"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":5000"),
		Logger: LoggerConfig{
			Level:     strings.ToLower(getenv("LOG_LEVEL", "info")),
			Format:    strings.ToLower(getenv("LOG_FORMAT", "json")),
			PIIFields: piiFields,
		},
		Auth: AuthConfig{
			Scheme:           normalizeScheme(getenv("AUTH_SCHEME", SchemeSession)),
			SessionName:      strings.TrimSpace(os.Getenv("SESSION_NAME")),
			SessionDuration:  ParseSessionDuration(os.Getenv("SESSION_DURATION")),
			SessionStore:     normalizeStore(getenv("SESSION_STORE", StoreMemory)),
			CookieSecure:     cookieSecure,
			PasswordHashAlgo: strings.ToLower(getenv("PASSWORD_HASH_ALGO", "argon2id")),
			PolicyPath:       strings.TrimSpace(getenv("AUTH_POLICY_PATH", "")),
			ExcludedPaths:    parseList(getenv("AUTH_EXCLUDED_PATHS", "")),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       int(getenvInt64("REDIS_DB", 0)),
		},
		Otel: OtelConfig{
			Enabled:       getenvBool("OTEL_ENABLED", false),
			Endpoint:      strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			Protocol:      otlpProtocol(),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "authgate"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "authgate.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
	}
}

// ParseSessionDuration reads SESSION_DURATION in seconds.
// Absent or non-numeric values mean zero, which disables expiration.
func ParseSessionDuration(raw string) time.Duration {
	seconds, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func normalizeScheme(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case SchemeBasic, "basic_auth":
		return SchemeBasic
	default:
		return SchemeSession
	}
}

func normalizeStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StoreDB, "database", "session_db_auth":
		return StoreDB
	case StoreRedis:
		return StoreRedis
	default:
		return StoreMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

// otlpProtocol prefers the traces-specific protocol when both are set.
func otlpProtocol() string {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	return strings.ToLower(strings.TrimSpace(protocol))
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
