package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
	BackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string

	StoreBackend   string
	DataDir        string
	EventsFile     string
	CountsFile     string
	DBUrl          string
	BoltPath       string
	CorruptAsEmpty bool

	RequestTimeout   time.Duration
	ReconcileOnStart bool
	AllowedOrigins   []string

	Mail MailConfig
	Log  LogConfig
}

// MailConfig holds the registration confirmation mailer settings.
type MailConfig struct {
	Provider              string
	FromAddress           string
	FromName              string
	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	SESInsecureSkipVerify bool
}

// LogConfig holds logger settings. An empty File logs to stdout.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// EventsPath returns the events table file for the file backend.
func (c *Config) EventsPath() string {
	return filepath.Join(c.DataDir, c.EventsFile)
}

// CountsPath returns the registration counts table file for the file backend.
func (c *Config) CountsPath() string {
	return filepath.Join(c.DataDir, c.CountsFile)
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production we rely on system environment variables only.
	if env != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Warning: .env file couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{
		Environment:    env,
		Port:           getEnv("PORT", "3000"),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendFile)),
		DataDir:        getEnv("DATA_DIR", "."),
		EventsFile:     getEnv("EVENTS_FILE", "events.json"),
		CountsFile:     getEnv("COUNTS_FILE", "data.json"),
		DBUrl:          os.Getenv("DATABASE_URL"),
		BoltPath:       getEnv("BOLT_PATH", "ticketing.db"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		Mail: MailConfig{
			Provider:           getEnv("MAILER_PROVIDER", "noop"),
			FromAddress:        os.Getenv("MAIL_FROM_ADDRESS"),
			FromName:           os.Getenv("MAIL_FROM_NAME"),
			AWSRegion:          os.Getenv("AWS_REGION"),
			AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}

	var errs []error
	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.CorruptAsEmpty, err = getBool("STORE_CORRUPT_AS_EMPTY", true); err != nil {
		errs = append(errs, err)
	}
	if cfg.ReconcileOnStart, err = getBool("RECONCILE_ON_START", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.Mail.SESInsecureSkipVerify, err = getBool("SES_INSECURE_SKIP_VERIFY", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.Log.MaxSizeMB, err = getInt("LOG_MAX_SIZE_MB", 100); err != nil {
		errs = append(errs, err)
	}
	if cfg.Log.MaxBackups, err = getInt("LOG_MAX_BACKUPS", 3); err != nil {
		errs = append(errs, err)
	}
	if cfg.Log.MaxAgeDays, err = getInt("LOG_MAX_AGE_DAYS", 28); err != nil {
		errs = append(errs, err)
	}

	switch cfg.StoreBackend {
	case BackendFile, BackendBolt, BackendMemory:
	case BackendPostgres:
		if cfg.DBUrl == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.StoreBackend))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def, fmt.Errorf("%s: invalid non-negative integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
