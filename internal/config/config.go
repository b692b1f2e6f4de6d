package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Debug     bool
	LogFormat string

	// Proofreading
	ReportPath    string
	Checks        string
	Pattern       string
	RulesPath     string
	WatchDebounce time.Duration

	// Preview server
	Addr     string
	APIToken string

	// Image generation
	VolcengineAK       string
	VolcengineSK       string
	VolcengineEndpoint string
	ImageTimeout       time.Duration
	ImagePollInterval  time.Duration
}

func Load() Config {
	cfg := Config{
		Debug:     envBool("BOOKKIT_DEBUG", false),
		LogFormat: envOr("BOOKKIT_LOG_FORMAT", "text"),

		ReportPath:    envOr("BOOKKIT_REPORT", "校对报告.md"),
		Checks:        envOr("BOOKKIT_CHECKS", "all"),
		Pattern:       envOr("BOOKKIT_PATTERN", "*.md"),
		RulesPath:     os.Getenv("BOOKKIT_RULES"),
		WatchDebounce: envDuration("BOOKKIT_WATCH_DEBOUNCE", 500*time.Millisecond),

		Addr:     envOr("BOOKKIT_ADDR", ":8090"),
		APIToken: os.Getenv("BOOKKIT_API_TOKEN"),

		VolcengineAK:       os.Getenv("VOLCENGINE_AK"),
		VolcengineSK:       os.Getenv("VOLCENGINE_SK"),
		VolcengineEndpoint: envOr("VOLCENGINE_ENDPOINT", "https://visual.volcengineapi.com"),
		ImageTimeout:       envDuration("IMAGE_TIMEOUT", 120*time.Second),
		ImagePollInterval:  envDuration("IMAGE_POLL_INTERVAL", 3*time.Second),
	}

	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = 120 * time.Second
	}
	if cfg.ImagePollInterval <= 0 {
		cfg.ImagePollInterval = 3 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	var errs []error
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("BOOKKIT_LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if strings.TrimSpace(c.ReportPath) == "" {
		errs = append(errs, errors.New("BOOKKIT_REPORT must not be empty"))
	}
	if strings.TrimSpace(c.Pattern) == "" {
		errs = append(errs, errors.New("BOOKKIT_PATTERN must not be empty"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("BOOKKIT_ADDR must not be empty"))
	}
	return errors.Join(errs...)
}

// Credentials are the Volcengine access key pair.
type Credentials struct {
	AccessKey string `json:"volcengine_ak"`
	SecretKey string `json:"volcengine_sk"`
}

// ErrNoCredentials means no source supplied a complete key pair.
var ErrNoCredentials = errors.New("volcengine credentials not configured (use --ak/--sk, VOLCENGINE_AK/VOLCENGINE_SK or ~/.tech-book-writer/config.json)")

// CredentialsFile is the per-user credentials file.
func CredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tech-book-writer", "config.json")
}

// ResolveCredentials picks the first complete key pair from the flags, the
// environment and then the credentials file at path.
func (c Config) ResolveCredentials(flagAK, flagSK, path string) (Credentials, error) {
	if flagAK != "" && flagSK != "" {
		return Credentials{AccessKey: flagAK, SecretKey: flagSK}, nil
	}
	if c.VolcengineAK != "" && c.VolcengineSK != "" {
		return Credentials{AccessKey: c.VolcengineAK, SecretKey: c.VolcengineSK}, nil
	}
	if path == "" {
		return Credentials{}, ErrNoCredentials
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
