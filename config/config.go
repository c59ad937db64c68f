package config

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported deployment environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const defaultAppURL = "http://localhost:3000"

// minSessionSecretLength is the minimum HMAC key length accepted in production.
const minSessionSecretLength = 32

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	AuditDatabase *DatabaseConfig // Optional: separate DB for audit logs. When nil, audit uses main DB.
	Redis         RedisConfig
	Session       SessionConfig
	SMTP          SMTPConfig
	Observability ObservabilityConfig
	CORS          CORSConfig
	AppURL        string
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TLS             TLSConfig
}

// TLSConfig enables serving HTTPS directly
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	ConnectTimeout   time.Duration
	AutoMigrate      bool
}

// RedisConfig holds the optional Redis connection used for caching and rate limiting.
// An empty Addr disables Redis entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

// SessionConfig holds session token settings
type SessionConfig struct {
	Secret   string
	TTL      time.Duration
	Issuer   string
	Insecure bool // Set when the secret was generated at startup
}

// SMTPConfig holds outbound mail settings. Without a Host, emails are logged instead of sent.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	environment := strings.ToLower(getEnv("ENVIRONMENT", getEnv("NODE_ENV", EnvDevelopment)))
	appURL := getEnv("APP_URL", "")
	if appURL == "" && environment != EnvProduction {
		appURL = defaultAppURL
	}

	cfg := &Config{
		Environment: environment,
		AppURL:      strings.TrimRight(appURL, "/"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLS: TLSConfig{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database:      loadDatabaseConfig("DATABASE_URL"),
		AuditDatabase: loadAuditDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			CacheTTL: getEnvAsDuration("WORKSPACE_CACHE_TTL", 5*time.Minute),
		},
		Session: loadSessionConfig(environment),
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "Cogzy AI <no-reply@cogzy.local>"),
			UseTLS:   getEnvAsBool("SMTP_USE_TLS", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{strings.TrimRight(appURL, "/")}),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("invalid environment %q: must be one of development, production, test", c.Environment)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Server.Port)
	}

	if c.Database.ConnectionString == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := validateDatabaseURL(c.Database.ConnectionString); err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	if c.AuditDatabase != nil {
		if err := validateDatabaseURL(c.AuditDatabase.ConnectionString); err != nil {
			return fmt.Errorf("invalid DATABASE_URL_AUDIT: %w", err)
		}
	}

	if c.AppURL == "" {
		return fmt.Errorf("APP_URL is required")
	}
	u, err := url.Parse(c.AppURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid APP_URL %q: must be an absolute URL", c.AppURL)
	}

	if c.IsProduction() {
		if c.Session.Insecure || len(c.Session.Secret) < minSessionSecretLength {
			return fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minSessionSecretLength)
		}
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("WORKSPACE_CACHE_TTL must be positive")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// RedisEnabled reports whether a Redis address was configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil {
		return "host=<unparseable DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
}

func validateDatabaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func loadDatabaseConfig(key string) DatabaseConfig {
	return DatabaseConfig{
		ConnectionString: getEnv(key, ""),
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime:  getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second),
		ConnectTimeout:   getEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
	}
}

// loadAuditDatabaseConfig loads audit DB config from DATABASE_URL_AUDIT.
// Returns nil when not set (audit uses main DB).
func loadAuditDatabaseConfig() *DatabaseConfig {
	if getEnv("DATABASE_URL_AUDIT", "") == "" {
		return nil
	}
	cfg := loadDatabaseConfig("DATABASE_URL_AUDIT")
	return &cfg
}

func loadSessionConfig(environment string) SessionConfig {
	cfg := SessionConfig{
		Secret: getEnv("SESSION_SECRET", ""),
		TTL:    getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		Issuer: getEnv("SESSION_ISSUER", "cogzy-api"),
	}
	if cfg.Secret == "" && environment != EnvProduction {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			cfg.Secret = hex.EncodeToString(buf)
			cfg.Insecure = true
		}
	}
	return cfg
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getPort reads PORT, then SERVER_PORT, defaulting to 3000. A value that is
// not a number becomes 0 so Validate rejects it.
func getPort() int {
	raw := getEnv("PORT", getEnv("SERVER_PORT", ""))
	if raw == "" {
		return 3000
	}
	p, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return p
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// parseEnv returns fallback when key is unset or does not parse
func parseEnv[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsInt(key string, fallback int) int {
	return parseEnv(key, fallback, strconv.Atoi)
}

func getEnvAsBool(key string, fallback bool) bool {
	return parseEnv(key, fallback, strconv.ParseBool)
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	return parseEnv(key, fallback, time.ParseDuration)
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
