// Package config reads process configuration from the environment, optional
// .env files and an optional YAML optimizer policy.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"domainwizard/internal/bandit"
)

// ErrNoDatabase is returned with an otherwise valid Config when DATABASE_URL
// is unset. Callers decide whether that is fatal.
var ErrNoDatabase = errors.New("DATABASE_URL not set")

type Config struct {
	Env        string
	ListenAddr string
	LogLevel   string

	DatabaseURL string
	RedisURL    string
	SQLitePath  string
	ModelKey    string

	NameGenURL      string
	RegistrarURL    string
	RegistrarAPIKey string
	RDAPBaseURL     string
	DatamuseURL     string
	WaybackURL      string
	GitHubToken     string

	RDAPDelay        time.Duration
	RateLimitBackoff time.Duration
	RateLimitRetries int
	InterLoopDelay   time.Duration
	EnrichLimit      int
	CacheSize        int
	RunHistory       int

	PolicyFile string
	Policy     bandit.Policy
}

func Load() (Config, error) {
	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}
	cfg := Config{
		Env:        getenv("APP_ENV", "development"),
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),
		LogLevel:   getenv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		SQLitePath:  getenv("SQLITE_PATH", "domainwizard.db"),
		ModelKey:    getenv("MODEL_KEY", "domain-wizard-bandit-v2"),

		NameGenURL:      os.Getenv("NAMEGEN_URL"),
		RegistrarURL:    os.Getenv("REGISTRAR_URL"),
		RegistrarAPIKey: os.Getenv("REGISTRAR_API_KEY"),
		RDAPBaseURL:     getenv("RDAP_BASE_URL", "https://rdap.org"),
		DatamuseURL:     os.Getenv("DATAMUSE_URL"),
		WaybackURL:      os.Getenv("WAYBACK_URL"),
		GitHubToken:     os.Getenv("GITHUB_TOKEN"),

		RDAPDelay:        getenvDuration("RDAP_DELAY", 250*time.Millisecond),
		RateLimitBackoff: getenvDuration("RATE_LIMIT_BACKOFF", 11*time.Second),
		RateLimitRetries: getenvInt("RATE_LIMIT_RETRIES", 6),
		InterLoopDelay:   getenvDuration("INTER_LOOP_DELAY", 500*time.Millisecond),
		EnrichLimit:      getenvInt("ENRICH_LIMIT", 50),
		CacheSize:        getenvInt("CACHE_SIZE", 4096),
		RunHistory:       getenvInt("RUN_HISTORY", 100),

		PolicyFile: os.Getenv("POLICY_FILE"),
	}

	policy, err := LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return cfg, err
	}
	cfg.Policy = policy

	if cfg.DatabaseURL == "" {
		return cfg, ErrNoDatabase
	}
	return cfg, nil
}

// LoadPolicy reads a YAML optimizer policy. An empty path yields the
// defaults; fields missing from the file keep their default values.
func LoadPolicy(path string) (bandit.Policy, error) {
	if path == "" {
		return bandit.DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return bandit.Policy{}, fmt.Errorf("read policy file %s: %w", path, err)
	}
	var p bandit.Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return bandit.Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return p.WithDefaults(), nil
}

// loadEnvFiles loads .env.local then .env; missing files are ignored and
// variables already set in the environment win.
func loadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if out, err := strconv.Atoi(v); err == nil {
			return out
		}
	}
	return def
}

// getenvDuration accepts Go durations ("11s") or plain milliseconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
