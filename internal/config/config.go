package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// StoreFile persists the session identifier in a local file.
	StoreFile = "file"
	// StoreRedis persists the session identifier in Redis.
	StoreRedis = "redis"
)

const (
	defaultAppName            = "AuraBank"
	defaultAppEnv             = "development"
	defaultLogLevel           = "info"
	defaultHTTPTimeout        = 30 * time.Second
	defaultScanInterval       = 500 * time.Millisecond
	defaultEnrollScanInterval = 300 * time.Millisecond
	httpTimeoutSecondsEnvVar  = "HTTP_TIMEOUT_SECONDS"
	httpTimeoutDurEnvVar      = "HTTP_TIMEOUT"
	scanMillisEnvVar          = "SCAN_INTERVAL_MS"
	scanDurEnvVar             = "SCAN_INTERVAL"
	enrollScanMillisEnvVar    = "ENROLL_SCAN_INTERVAL_MS"
	enrollScanDurEnvVar       = "ENROLL_SCAN_INTERVAL"
)

// Config captures client runtime configuration loaded from environment variables.
type Config struct {
	AppName            string
	AppEnv             string
	LogLevel           string
	LedgerURL          string
	HTTPTimeout        time.Duration
	SessionStore       string
	SessionFile        string
	DescriptorFile     string
	RedisURL           string
	ScanInterval       time.Duration
	EnrollScanInterval time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             getEnv("APP_ENV", defaultAppEnv),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LedgerURL:          os.Getenv("LEDGER_URL"),
		HTTPTimeout:        defaultHTTPTimeout,
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", StoreFile)),
		SessionFile:        os.Getenv("SESSION_FILE"),
		DescriptorFile:     os.Getenv("FACE_DESCRIPTOR_FILE"),
		RedisURL:           os.Getenv("REDIS_URL"),
		ScanInterval:       defaultScanInterval,
		EnrollScanInterval: defaultEnrollScanInterval,
	}

	if v := os.Getenv(httpTimeoutSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", httpTimeoutSecondsEnvVar, err)
		}
		cfg.HTTPTimeout = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(httpTimeoutDurEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", httpTimeoutDurEnvVar, err)
		}
		cfg.HTTPTimeout = d
	}

	var err error
	cfg.ScanInterval, err = interval(scanMillisEnvVar, scanDurEnvVar, defaultScanInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.EnrollScanInterval, err = interval(enrollScanMillisEnvVar, enrollScanDurEnvVar, defaultEnrollScanInterval)
	if err != nil {
		return Config{}, err
	}

	if cfg.LedgerURL == "" {
		return Config{}, fmt.Errorf("LEDGER_URL must be set")
	}

	if cfg.DescriptorFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DescriptorFile = filepath.Join(home, ".aurabank", "descriptor.json")
		}
	}

	switch cfg.SessionStore {
	case StoreFile:
		if cfg.SessionFile == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return Config{}, fmt.Errorf("resolve home directory for session file: %w", err)
			}
			cfg.SessionFile = filepath.Join(home, ".aurabank", "session")
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when SESSION_STORE=%s", StoreRedis)
		}
	default:
		return Config{}, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	return cfg, nil
}

func interval(millisKey, durKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(millisKey); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return 0, fmt.Errorf("invalid %s: %q", millisKey, v)
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	if v := os.Getenv(durKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durKey, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("%s must be positive", durKey)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
