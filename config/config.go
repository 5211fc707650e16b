package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Object storage (optional; file content degrades to inline DB storage
	// when credentials are absent)
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Server
	Port           string
	BaseURL        string
	TrustedProxies []string

	// Security
	AuthSecret string

	// PDF rendering
	PDFNavTimeoutSeconds int
	PDFSettleDelayMs     int
}

func Load() *Config {
	cfg := &Config{
		DBUser:               getEnv("DB_USER", "root"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "3306"),
		DBName:               getEnv("DB_NAME", "customereye"),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3AccessKeyID:        getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:    getEnv("S3_SECRET_ACCESS_KEY", ""),
		Port:                 getEnv("PORT", "8080"),
		BaseURL:              getEnv("BASE_URL", "http://localhost:8080"),
		AuthSecret:           getEnv("AUTH_SECRET", ""),
		PDFNavTimeoutSeconds: getEnvInt("PDF_NAV_TIMEOUT_SECONDS", 30),
		PDFSettleDelayMs:     getEnvInt("PDF_SETTLE_DELAY_MS", 2000),
	}

	trustedProxies := os.Getenv("TRUSTED_PROXIES")
	if trustedProxies == "" {
		cfg.TrustedProxies = []string{"127.0.0.1", "::1"}
	} else {
		for _, proxy := range strings.Split(trustedProxies, ",") {
			if trimmed := strings.TrimSpace(proxy); trimmed != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, trimmed)
			}
		}
	}

	if cfg.S3Bucket == "" || cfg.S3AccessKeyID == "" {
		log.Warn("Object storage not configured, file content will be stored inline in the database")
	}
	if cfg.AuthSecret == "" {
		log.Warn("AUTH_SECRET not set, admin upload endpoints will reject all requests")
	}

	return cfg
}

// ObjectStorageConfigured reports whether the S3 credentials are complete.
func (c *Config) ObjectStorageConfigured() bool {
	return c.S3Bucket != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warnf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
