package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment    string
	HTTPPort       string
	DatabaseDriver string
	DatabasePath   string
	DatabaseDSN    string
	JWTSecret      string
	// GeneratedSecret is true when no secret was configured and a random one
	// was minted for this process. Tokens will not survive a restart.
	GeneratedSecret bool
	AdminRecheck    bool
	NotifyURLs      []string
	SweepSchedule   string
	LogDir          string
	Debug           bool
}

// Load reads an optional .env file and env vars, falling back to defaults so
// the server can boot with zero configuration.
func Load() (Config, error) {
	if err := godotenv.Load(getEnv("BALLOT_ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Environment:    getEnv("BALLOT_ENV", "development"),
		HTTPPort:       getEnv("BALLOT_HTTP_PORT", "8080"),
		DatabaseDriver: strings.ToLower(getEnv("BALLOT_DB_DRIVER", "sqlite")),
		DatabasePath:   getEnv("BALLOT_DB_PATH", filepath.Join("data", "ballot.db")),
		DatabaseDSN:    os.Getenv("BALLOT_DB_DSN"),
		JWTSecret:      os.Getenv("BALLOT_JWT_SECRET"),
		AdminRecheck:   getBool("BALLOT_ADMIN_RECHECK", false),
		NotifyURLs:     splitList(os.Getenv("BALLOT_NOTIFY_URLS")),
		SweepSchedule:  strings.TrimSpace(os.Getenv("BALLOT_SWEEP_SCHEDULE")),
		LogDir:         getEnv("BALLOT_LOG_DIR", filepath.Join("data", "logs")),
		Debug:          getBool("BALLOT_DEBUG", false),
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return Config{}, fmt.Errorf("ensure data directory: %w", err)
		}
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return Config{}, errors.New("BALLOT_DB_DSN is required for the postgres driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.JWTSecret == "" {
		secret, err := GenerateSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.GeneratedSecret = true
	}

	return cfg, nil
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.DatabaseDriver == "postgres" {
		return c.DatabaseDSN
	}
	return c.DatabasePath
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// GenerateSecret returns a random URL-safe secret suitable for HS256 signing.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
