package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// PinningConfig holds settings for the IPFS pinning service that stores
// ciphertext blobs. RetryAttempts/RetryDelay govern the bounded retry on the
// read path only; writes fail on the first error.
type PinningConfig struct {
	PinEndpoint   string
	GatewayURL    string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// MinIOConfig holds object storage settings for the S3-compatible alternative
// blob backend used by self-hosted deployments without a pinning provider.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LedgerConfig holds settings for the external anchor service. The client is
// constructed from this struct explicitly; nothing reads these values as
// ambient globals. Enabled=false means the service runs without anchoring.
type LedgerConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string
	Port           string
	StorageBackend string // "pinning" (default) or "minio"
	Database       DatabaseConfig
	Pinning        PinningConfig
	MinIO          MinIOConfig
	Ledger         LedgerConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:        getEnv("APP_HOST", "localhost:8080"),
		Port:           getEnv("PORT", "8080"),
		StorageBackend: getEnv("STORAGE_BACKEND", "pinning"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Pinning: PinningConfig{
			PinEndpoint:   getEnv("PINNING_PIN_ENDPOINT", ""),
			GatewayURL:    getEnv("PINNING_GATEWAY_URL", ""),
			APIKey:        getEnv("PINNING_API_KEY", ""),
			Timeout:       getEnvDuration("PINNING_TIMEOUT", 30*time.Second),
			RetryAttempts: getEnvInt("PINNING_RETRY_ATTEMPTS", 3),
			RetryDelay:    getEnvDuration("PINNING_RETRY_DELAY", 2*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Ledger: LedgerConfig{
			Enabled:  getEnvBool("LEDGER_ENABLED", false),
			Endpoint: getEnv("LEDGER_ENDPOINT", ""),
			APIKey:   getEnv("LEDGER_API_KEY", ""),
			Timeout:  getEnvDuration("LEDGER_TIMEOUT", 15*time.Second),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
