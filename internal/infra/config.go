package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int
	JWTSecret   string

	// PIIEncryptionKey protects citizen service numbers at rest.
	PIIEncryptionKey string

	// StorageDir is the root for generated documents: SEPA batch files,
	// ANBI exports, receipt archives.
	StorageDir  string
	GeoIPDBPath string

	// DefaultLocale is used for portal responses when the caller's
	// country cannot be resolved.
	DefaultLocale string
	CORSOrigins   []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPAddr     string
	SMTPFrom     string
	SMTPUser     string
	SMTPPassword string

	EBoekhoudenBaseURL string
	EBoekhoudenToken   string
	// LedgerMappingPath points at the YAML file mapping invoice and
	// donation flows to ledger codes. Bookkeeping sync stays off when
	// the file is absent.
	LedgerMappingPath string
	AlertEmail        string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	WorkerPollInterval time.Duration
	// WorkerMetricsAddr is where the worker exposes its own /metrics
	// listener, separate from the API port.
	WorkerMetricsAddr string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		PIIEncryptionKey:   os.Getenv("PII_ENCRYPTION_KEY"),
		StorageDir:         getEnv("STORAGE_DIR", "./data"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "nl"),
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		SMTPAddr:           os.Getenv("SMTP_ADDR"),
		SMTPFrom:           os.Getenv("SMTP_FROM"),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		EBoekhoudenBaseURL: getEnv("EBOEKHOUDEN_BASE_URL", "https://api.e-boekhouden.nl"),
		EBoekhoudenToken:   os.Getenv("EBOEKHOUDEN_API_TOKEN"),
		LedgerMappingPath:  os.Getenv("LEDGER_MAPPING_PATH"),
		AlertEmail:         os.Getenv("ALERT_EMAIL"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 5)),
		WorkerMetricsAddr:  getEnv("WORKER_METRICS_ADDR", ":9102"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.PIIEncryptionKey == "" {
		return nil, fmt.Errorf("PII_ENCRYPTION_KEY is required")
	}

	return cfg, nil
}

// SMTPConfigured reports whether outbound mail can be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPAddr != "" && c.SMTPFrom != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
