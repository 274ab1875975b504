package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from the environment.
type Config struct {
	ServerPort string

	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MinioPublicBaseURL string

	InstagramBaseURL  string
	InstagramUsername string
	InstagramPassword string

	UpstreamTimeout time.Duration
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
}

// Load reads configuration from the environment (and an optional .env file).
// The object storage connection is mandatory: the service cannot do anything
// useful without it, so a missing endpoint or credentials fails startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		MinioEndpoint:      os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        getEnv("MINIO_BUCKET", "instagram"),
		MinioUseSSL:        getEnv("MINIO_USE_SSL", "false") == "true",
		MinioPublicBaseURL: os.Getenv("MINIO_PUBLIC_BASE_URL"),

		InstagramBaseURL:  getEnv("INSTAGRAM_BASE_URL", "https://www.instagram.com"),
		InstagramUsername: os.Getenv("INSTAGRAM_USERNAME"),
		InstagramPassword: os.Getenv("INSTAGRAM_PASSWORD"),

		UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT_SECONDS", 15*time.Second),
		DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT_SECONDS", 30*time.Second),
		UploadTimeout:   getEnvAsDuration("UPLOAD_TIMEOUT_SECONDS", 30*time.Second),
	}

	if cfg.MinioEndpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT is not set")
	}
	if cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" {
		return nil, errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY must be set")
	}

	if cfg.MinioPublicBaseURL == "" {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		cfg.MinioPublicBaseURL = scheme + "://" + cfg.MinioEndpoint
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
