// internal/config/config.go
//
// Environment-driven configuration shared by the web frontend, blogctl and
// the stand-in API. A `.env` file is loaded first when present; real
// environment variables win over it.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMaxUploadBytes is the image size ceiling for create and edit flows.
const DefaultMaxUploadBytes = 2 << 20

type Config struct {
	// Client
	APIBaseURL     string
	CookieName     string
	MaxUploadBytes int64
	RequestTimeout time.Duration

	// Web frontend
	Port          string
	RedirectDelay time.Duration
	Production    bool

	// Stand-in API
	BlogAPIPort      string
	BlogAPIDB        string
	BlogAPIPageSize  int
	BlogAPIPublicURL string
	JWTSecret        string
	JWTExpires       time.Duration
	ClientOrigin     string

	LogLevel string
}

// Load reads configuration from the environment. A missing .env file is
// fine; sizes, timeouts and page sizes that are not positive are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	apiPort := getEnv("BLOGAPI_PORT", "4000")
	cfg := &Config{
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:4000/api"),
		CookieName:     getEnv("COOKIE_NAME", "jwt"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 10000)) * time.Millisecond,

		Port:          getEnv("PORT", "3000"),
		RedirectDelay: time.Duration(getEnvInt("REDIRECT_DELAY_MS", 1500)) * time.Millisecond,
		Production:    os.Getenv("APP_ENV") == "production",

		BlogAPIPort:      apiPort,
		BlogAPIDB:        getEnv("BLOGAPI_DB", "./data/blog.db"),
		BlogAPIPageSize:  getEnvInt("BLOGAPI_PAGE_SIZE", 5),
		BlogAPIPublicURL: getEnv("BLOGAPI_PUBLIC_URL", "http://localhost:"+apiPort+"/api"),
		JWTSecret:        getEnv("JWT_SECRET", "dev_secret_change_me"),
		JWTExpires:       time.Duration(getEnvInt("JWT_EXPIRES_HOURS", 24)) * time.Hour,
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "http://localhost:3000"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("REQUEST_TIMEOUT_MS must be positive, got %s", c.RequestTimeout)
	case c.RedirectDelay < 0:
		return fmt.Errorf("REDIRECT_DELAY_MS must not be negative, got %s", c.RedirectDelay)
	case c.BlogAPIPageSize <= 0:
		return fmt.Errorf("BLOGAPI_PAGE_SIZE must be positive, got %d", c.BlogAPIPageSize)
	case c.JWTExpires <= 0:
		return fmt.Errorf("JWT_EXPIRES_HOURS must be positive, got %s", c.JWTExpires)
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses k as an int; unparsable values fall back to def.
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
