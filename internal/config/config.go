package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable the web client reads from the environment.
type Config struct {
	Addr               string
	APIBaseURL         string
	StorePath          string
	FirebaseProjectID  string
	SessionHashKey     string
	SessionBlockKey    string
	Env                string
	TemplatesDir       string
	PublicDir          string
	ContentDir         string
	AuthInitTimeout    time.Duration
	MaintenancePoll    time.Duration
	ListingCacheWindow time.Duration
	SyncWatchInterval  time.Duration
}

// Load reads .env when present and falls back to system environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	port := os.Getenv("SBF_WEB_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		Addr:               ":" + port,
		APIBaseURL:         os.Getenv("SBF_API_BASE_URL"),
		StorePath:          getEnv("SBF_STORE_PATH", "sribala-web.db"),
		FirebaseProjectID:  os.Getenv("FIREBASE_PROJECT_ID"),
		SessionHashKey:     os.Getenv("SBF_SESSION_HASH_KEY"),
		SessionBlockKey:    os.Getenv("SBF_SESSION_BLOCK_KEY"),
		Env:                getEnv("SBF_ENV", "dev"),
		TemplatesDir:       getEnv("SBF_TEMPLATES_DIR", "templates"),
		PublicDir:          getEnv("SBF_PUBLIC_DIR", "public"),
		ContentDir:         getEnv("SBF_CONTENT_DIR", "content"),
		AuthInitTimeout:    getDuration("SBF_AUTH_INIT_TIMEOUT", 3*time.Second),
		MaintenancePoll:    getDuration("SBF_MAINTENANCE_POLL", 5*time.Second),
		ListingCacheWindow: getDuration("SBF_LISTING_CACHE_WINDOW", time.Minute),
		SyncWatchInterval:  getDuration("SBF_SYNC_WATCH_INTERVAL", time.Second),
	}
	return cfg, nil
}

// Prod reports whether the process runs with production hardening (secure
// cookies, cached templates).
func (c *Config) Prod() bool { return c.Env == "prod" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Bare integers are treated as seconds.
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
