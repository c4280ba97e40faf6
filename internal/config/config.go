// Package config assembles process configuration from the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/tutorgate/internal/keyvault"
	"github.com/abhisek/tutorgate/internal/llm"
)

// DefaultEnvFile is loaded when present and no other file was named.
const DefaultEnvFile = ".env"

// Config is the server configuration.
type Config struct {
	HTTPAddr    string
	DBPath      string // empty: use store.DefaultDBPath
	LogMode     string
	CORSOrigins []string

	// VaultSecret seeds vault key derivation. Empty: a random secret per
	// process, so cached keys do not survive a restart.
	VaultSecret      string
	VaultTTL         time.Duration
	VaultMaxFailures int

	QuizSessionTTL time.Duration
	SweepInterval  time.Duration

	LLM llm.Config
}

// Default returns a Config with every default applied.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		LogMode:          "development",
		CORSOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
		VaultTTL:         keyvault.DefaultTTL,
		VaultMaxFailures: keyvault.DefaultMaxFailures,
		QuizSessionTTL:   30 * time.Minute,
		SweepInterval:    5 * time.Minute,
		LLM:              llm.DefaultConfig(),
	}
}

// Load reads envFile into the process environment, then builds and
// validates the Config from TUTOR_* variables.
func Load(envFile string) (Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadEnvFile copies the variables of envFile into the process environment.
// Variables already set win over the file. An empty envFile means
// DefaultEnvFile, which may be absent; a file named explicitly must exist.
func LoadEnvFile(envFile string) error {
	path := envFile
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

// FromEnv builds a Config from the current environment.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.LLM = llm.ConfigFromEnv()

	if v := os.Getenv("TUTOR_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.DBPath = os.Getenv("TUTOR_DB")
	if v := os.Getenv("TUTOR_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("TUTOR_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.VaultSecret = os.Getenv("TUTOR_VAULT_SECRET")

	var err error
	if cfg.VaultTTL, err = durationEnv("TUTOR_VAULT_TTL", cfg.VaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.VaultMaxFailures, err = intEnv("TUTOR_VAULT_MAX_FAILURES", cfg.VaultMaxFailures); err != nil {
		return Config{}, err
	}
	if cfg.QuizSessionTTL, err = durationEnv("TUTOR_QUIZ_SESSION_TTL", cfg.QuizSessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = durationEnv("TUTOR_SWEEP_INTERVAL", cfg.SweepInterval); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and the provider settings.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http address is required")
	}
	if c.VaultTTL <= 0 {
		return errors.New("vault TTL must be positive")
	}
	if c.VaultMaxFailures <= 0 {
		return errors.New("vault max failures must be positive")
	}
	if c.QuizSessionTTL <= 0 {
		return errors.New("quiz session TTL must be positive")
	}
	if c.SweepInterval < time.Minute {
		return errors.New("sweep interval must be at least one minute")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// VaultConfig returns the key vault settings.
func (c Config) VaultConfig() keyvault.Config {
	return keyvault.Config{
		Secret:      []byte(c.VaultSecret),
		TTL:         c.VaultTTL,
		MaxFailures: c.VaultMaxFailures,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}
