package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Auth       AuthConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Generation GenerationConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	HTTPClientTimeout  time.Duration
	BatchTTL           time.Duration
	OtelEnabled        bool
	OtelEndpoint       string
}

type AuthConfig struct {
	JWTSecret          string
	Issuer             string
	TokenDuration      time.Duration
	CookieDuration     time.Duration
	AvatarPath         string
	GoogleClientID     string
	GoogleClientSecret string
}

// Store selects the gallery record backend: "postgres" or "mongo".
type DatabaseConfig struct {
	Store         string
	URL           string
	MongoURI      string
	MongoDatabase string
}

// Backend selects the blob store: "gcs" or "s3".
type StorageConfig struct {
	Backend         string
	GCSProjectID    string
	GCSBucket       string
	GCSMakePublic   bool
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// ImageSourceHosts are the hosts the gallery may fetch generated images from.
type GenerationConfig struct {
	FalKey           string
	FalBaseURL       string
	GeminiAPIKey     string
	GeminiModel      string
	ImageSourceHosts []string
}

var ErrMissingSecret = errors.New("JWT_SECRET not set")

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			HTTPClientTimeout:  getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 60*time.Second),
			BatchTTL:           getEnvAsDuration("BATCH_TTL", time.Hour),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			Issuer:             getEnv("AUTH_ISSUER", "snap-gallery"),
			TokenDuration:      getEnvAsDuration("TOKEN_DURATION", 24*time.Hour),
			CookieDuration:     getEnvAsDuration("COOKIE_DURATION", 7*24*time.Hour),
			AvatarPath:         getEnv("AVATAR_PATH", "/tmp/avatars"),
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Store:         getEnv("GALLERY_STORE", "postgres"),
			URL:           getEnv("DATABASE_URL", ""),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "snap_gallery"),
		},
		Storage: StorageConfig{
			Backend:         getEnv("BLOB_BACKEND", "gcs"),
			GCSProjectID:    getEnv("GSC_PROJECT_ID", ""),
			GCSBucket:       getEnv("GSC_BUCKET_NAME", ""),
			GCSMakePublic:   getEnvAsBool("GCS_MAKE_PUBLIC", false),
			S3Bucket:        getEnv("S3_BUCKET", ""),
			S3Region:        getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:      getEnv("S3_ENDPOINT", ""),
			S3AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:     getEnv("S3_SECRET_KEY", ""),
			S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Generation: GenerationConfig{
			FalKey:           getEnv("FAL_KEY", ""),
			FalBaseURL:       getEnv("FAL_BASE_URL", "https://fal.run"),
			GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
			ImageSourceHosts: getEnvAsList("IMAGE_SOURCE_HOSTS", []string{"fal.media", "fal.run", "storage.googleapis.com"}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}
	switch c.Database.Store {
	case "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported GALLERY_STORE %q", c.Database.Store)
	}
	switch c.Storage.Backend {
	case "gcs", "s3":
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
