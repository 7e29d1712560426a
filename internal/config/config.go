package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	// Optional collaborators. Empty means the feature is disabled:
	// no DATABASE_URL -> solo persistence API is not registered,
	// no REDIS_ADDR -> rate limiting is fail-open,
	// no TOKEN_SECRET -> resume tokens are not issued.
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenSecret   string

	LogLevel string
	LogJSON  bool

	// Session lifecycle
	CleanupGrace time.Duration

	// API rate limiting
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads configuration from the environment (and .env, if present).
func Load() *Config {
	_ = godotenv.Load()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8500"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	cleanupGrace := 60 * time.Second
	if v := os.Getenv("CLEANUP_GRACE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cleanupGrace = time.Duration(n) * time.Second
		}
	}

	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateLimit = n
		}
	}

	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:       port,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		TokenSecret:   os.Getenv("TOKEN_SECRET"),
		LogLevel:      logLevel,
		LogJSON:       os.Getenv("LOG_JSON") == "true",
		CleanupGrace:  cleanupGrace,
		APIRateLimit:  apiRateLimit,
		APIRateWindow: apiRateWindow,
	}
}
