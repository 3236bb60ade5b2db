package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrMissingCredential indicates OPENAI_API_KEY is not set. Fatal at
// startup, before any media is touched.
var ErrMissingCredential = errors.New("OPENAI_API_KEY is not set")

// Config holds the full application configuration.
type Config struct {
	APIKey           string
	WhisperModel     string
	MaxChunkSizeMB   int
	TestModeDuration int // seconds

	MaxRetries      int
	RateLimitPerMin int
}

// Default returns a Config with hardcoded defaults; the credential is
// intentionally empty.
func Default() *Config {
	return &Config{
		WhisperModel:     "whisper-1",
		MaxChunkSizeMB:   24,
		TestModeDuration: 600,
		MaxRetries:       3,
		RateLimitPerMin:  30,
	}
}

// Load builds the configuration from the process environment, reading a
// .env file first when one exists in the working directory.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := Default()

	cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	if model := os.Getenv("WHISPER_MODEL"); model != "" {
		cfg.WhisperModel = model
	}

	var err error
	if cfg.MaxChunkSizeMB, err = intEnv("MAX_CHUNK_SIZE_MB", cfg.MaxChunkSizeMB); err != nil {
		return nil, err
	}
	if cfg.TestModeDuration, err = intEnv("TEST_MODE_DURATION", cfg.TestModeDuration); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MaxChunkBytes returns the hard per-chunk size cap in bytes.
func (c *Config) MaxChunkBytes() int64 {
	return int64(c.MaxChunkSizeMB) * 1024 * 1024
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", name, raw, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, v)
	}
	return v, nil
}
