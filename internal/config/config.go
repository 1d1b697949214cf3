package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys
const (
	EnvBaseURL          = "GOSELL_BASE_URL"
	EnvSecretKey        = "GOSELL_SECRET_KEY"
	EnvKeyID            = "GOSELL_KEY_ID"
	EnvEncryptionKey    = "GOSELL_ENCRYPTION_KEY"
	EnvEncryptionScheme = "GOSELL_ENCRYPTION_SCHEME"
	EnvTimeout          = "GOSELL_TIMEOUT"
	EnvLocale           = "GOSELL_LOCALE"
	EnvLogLevel         = "GOSELL_LOG_LEVEL"
	EnvLogFormat        = "GOSELL_LOG_FORMAT"
)

const (
	DefaultBaseURL = "https://api.tap.company/v2"
	DefaultLocale  = "en"
	DefaultTimeout = 30 * time.Second
)

var (
	ErrMissingSecretKey = errors.New(EnvSecretKey + " is required")
	ErrNoEnvFile        = errors.New("no .env file found")
)

// Config is everything a client session needs.
type Config struct {
	BaseURL          string
	SecretKey        string
	KeyID            string
	EncryptionKey    string
	EncryptionScheme string
	Timeout          time.Duration
	Locale           string
	LogLevel         string
	LogFormat        string
}

// LoadEnv loads variables from .env files. A missing file is reported as
// ErrNoEnvFile; callers usually log it and carry on.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrNoEnvFile, err)
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads the client configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:          GetEnv(EnvBaseURL, DefaultBaseURL),
		SecretKey:        GetEnv(EnvSecretKey, ""),
		KeyID:            GetEnv(EnvKeyID, ""),
		EncryptionKey:    GetEnv(EnvEncryptionKey, ""),
		EncryptionScheme: GetEnv(EnvEncryptionScheme, ""),
		Timeout:          GetDurationEnv(EnvTimeout, DefaultTimeout),
		Locale:           GetEnv(EnvLocale, DefaultLocale),
		LogLevel:         GetEnv(EnvLogLevel, "info"),
		LogFormat:        GetEnv(EnvLogFormat, "text"),
	}
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if cfg.KeyID == "" {
		cfg.KeyID = cfg.SecretKey[:min(len(cfg.SecretKey), 12)]
	}
	return cfg, nil
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
