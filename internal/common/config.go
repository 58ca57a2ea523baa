package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Store      StoreConfig
	Extraction ExtractionConfig
	Upload     UploadConfig
	Review     ReviewConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// DatabaseConfig holds decision-store configuration. When DSN is empty
// the daemon falls back to a local sqlite file at SQLitePath.
type DatabaseConfig struct {
	DSN             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// StoreConfig holds object-store configuration for raw document bytes.
type StoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ExtractionConfig holds extraction-service configuration, including the
// poll budget applied by the job poller.
type ExtractionConfig struct {
	APIURL         string
	APIToken       string
	MaxAttempts    int
	PollInterval   time.Duration
	RequestTimeout time.Duration
	PollRate       float64 // polls per second across all jobs
}

// UploadConfig holds client-side validation limits and the registration
// service endpoint.
type UploadConfig struct {
	RegistrarURL   string
	MaxUploadBytes int64
	Concurrency    int
}

// ReviewConfig holds confidence thresholds and the auto-populate mapping
// file location.
type ReviewConfig struct {
	HighThreshold   float64
	MediumThreshold float64
	AutofillPath    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "./compliance-docs.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Store: StoreConfig{
			Endpoint:  getEnv("STORE_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("STORE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORE_SECRET_KEY", ""),
			Bucket:    getEnv("STORE_BUCKET", "compliance-docs"),
			UseSSL:    getEnvAsBool("STORE_USE_SSL", false),
		},
		Extraction: ExtractionConfig{
			APIURL:         getEnv("EXTRACTION_API_URL", ""),
			APIToken:       getEnv("EXTRACTION_API_TOKEN", ""),
			MaxAttempts:    getEnvAsInt("EXTRACTION_MAX_ATTEMPTS", 60),
			PollInterval:   getEnvAsDuration("EXTRACTION_POLL_INTERVAL", 5*time.Second),
			RequestTimeout: getEnvAsDuration("EXTRACTION_REQUEST_TIMEOUT", 30*time.Second),
			PollRate:       getEnvAsFloat64("EXTRACTION_POLL_RATE", 10),
		},
		Upload: UploadConfig{
			RegistrarURL:   getEnv("REGISTRAR_URL", ""),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			Concurrency:    getEnvAsInt("UPLOAD_CONCURRENCY", 4),
		},
		Review: ReviewConfig{
			HighThreshold:   getEnvAsFloat64("CONFIDENCE_HIGH", 90),
			MediumThreshold: getEnvAsFloat64("CONFIDENCE_MEDIUM", 70),
			AutofillPath:    getEnv("AUTOFILL_MAPPING_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
