package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Vimeo    VimeoConfig
	Zoom     ZoomConfig
	Stripe   StripeConfig
	AWS      AWSConfig
	Worker   WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	RunWorker          bool   // run the upload sync worker inside the server process
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string // memory | postgres
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings. Empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AuthConfig holds Clerk session verification and the dev token fallback.
type AuthConfig struct {
	ClerkPublishableKey string
	ClerkSecretKey      string
	ClerkJWTKey         string // PEM public key used to verify session tokens
	ClerkIssuer         string
	DevJWTSecret        string
	DevJWTExpireHours   int
}

// Configured reports whether Clerk session tokens can be verified.
func (c AuthConfig) Configured() bool { return c.ClerkJWTKey != "" }

// VimeoConfig holds Vimeo API credentials.
type VimeoConfig struct {
	ClientID          string
	ClientSecret      string
	AccessToken       string
	RequestsPerSecond int
}

// Configured reports whether live Vimeo calls are possible.
func (c VimeoConfig) Configured() bool { return c.AccessToken != "" }

// ZoomConfig holds Zoom server-to-server OAuth credentials.
type ZoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	Timezone     string
}

// Configured reports whether live Zoom calls are possible.
func (c ZoomConfig) Configured() bool {
	return c.AccountID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// StripeConfig holds Stripe keys.
type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	PublishableKey string
	Currency       string
}

// Configured reports whether live Stripe calls are possible.
func (c StripeConfig) Configured() bool { return c.SecretKey != "" }

// AWSConfig holds AWS credentials and the thumbnails bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ThumbnailsBucket     string
	PresignExpireMinutes int
}

// WorkerConfig tunes the upload sync worker.
type WorkerConfig struct {
	PollInterval time.Duration // delay between Vimeo transcoding checks
	MaxPolls     int           // checks before a processing upload is failed
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
			RunWorker:          getEnvBool("RUN_WORKER", false),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "academy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			ClerkPublishableKey: getEnv("NEXT_PUBLIC_CLERK_PUBLISHABLE_KEY", ""),
			ClerkSecretKey:      getEnv("CLERK_SECRET_KEY", ""),
			ClerkJWTKey:         strings.ReplaceAll(getEnv("CLERK_JWT_KEY", ""), `\n`, "\n"),
			ClerkIssuer:         getEnv("CLERK_ISSUER", ""),
			DevJWTSecret:        getEnv("DEV_JWT_SECRET", "change-me-in-production"),
			DevJWTExpireHours:   getEnvInt("DEV_JWT_EXPIRE_HOURS", 24),
		},
		Vimeo: VimeoConfig{
			ClientID:          getEnv("VIMEO_CLIENT_ID", ""),
			ClientSecret:      getEnv("VIMEO_CLIENT_SECRET", ""),
			AccessToken:       getEnv("VIMEO_ACCESS_TOKEN", ""),
			RequestsPerSecond: getEnvInt("VIMEO_REQUESTS_PER_SEC", 5),
		},
		Zoom: ZoomConfig{
			AccountID:    getEnv("ZOOM_ACCOUNT_ID", getEnv("NEXT_PUBLIC_ZOOM_ACCOUNT_ID", "")),
			ClientID:     getEnv("ZOOM_CLIENT_ID", getEnv("NEXT_PUBLIC_ZOOM_CLIENT_ID", "")),
			ClientSecret: getEnv("ZOOM_CLIENT_SECRET", getEnv("NEXT_PUBLIC_ZOOM_CLIENT_SECRET", "")),
			Timezone:     getEnv("ZOOM_TIMEZONE", "UTC"),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PublishableKey: getEnv("NEXT_PUBLIC_STRIPE_PUBLISHABLE_KEY", ""),
			Currency:       strings.ToLower(getEnv("STRIPE_CURRENCY", "usd")),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", ""),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ThumbnailsBucket:     getEnv("AWS_S3_THUMBNAILS_BUCKET", "academy-thumbnails"),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Worker: WorkerConfig{
			PollInterval: time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SEC", 15)) * time.Second,
			MaxPolls:     getEnvInt("WORKER_MAX_POLLS", 240),
		},
	}

	if cfg.Store.Driver != StoreMemory && cfg.Store.Driver != StorePostgres {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
	// Without Redis there is no shared queue, so the server must drain its own jobs.
	if !cfg.Redis.Enabled() {
		cfg.Server.RunWorker = true
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// AllowedOrigins returns the CORS origins as a list.
func (c ServerConfig) AllowedOrigins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
