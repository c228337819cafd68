package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vytor/openingtree/internal/logger"
)

// MaxPliesLimit bounds MAX_PLIES.
const MaxPliesLimit = 200

type Config struct {
	Addr               string `yaml:"addr"`
	DBPath             string `yaml:"db_path"`
	LogLevel           string `yaml:"log_level"`
	MaxPlies           int    `yaml:"max_plies"`
	BuildQueueSize     int    `yaml:"build_queue_size"`
	TreeCacheSize      int    `yaml:"tree_cache_size"`
	BuildRatePerMinute int    `yaml:"build_rate_per_minute"`
	MetricsEnabled     *bool  `yaml:"metrics_enabled"`
}

// Load reads a .env file (if present), then the YAML file named by
// CONFIG_FILE (if set), then environment variables. Missing values take
// defaults.
func Load() (Config, error) {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Addr = envOr("ADDR", cfg.Addr)
	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.MaxPlies = envIntOr("MAX_PLIES", cfg.MaxPlies)
	cfg.BuildQueueSize = envIntOr("BUILD_QUEUE_SIZE", cfg.BuildQueueSize)
	cfg.TreeCacheSize = envIntOr("TREE_CACHE_SIZE", cfg.TreeCacheSize)
	cfg.BuildRatePerMinute = envIntOr("BUILD_RATE_PER_MINUTE", cfg.BuildRatePerMinute)
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MetricsEnabled = &b
		} else {
			log.Printf("invalid value for METRICS_ENABLED=%q, ignoring", v)
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "file:openingtree.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.MaxPlies == 0 {
		cfg.MaxPlies = 20
	}
	if cfg.BuildQueueSize == 0 {
		cfg.BuildQueueSize = 16
	}
	if cfg.TreeCacheSize == 0 {
		cfg.TreeCacheSize = 32
	}
	if cfg.BuildRatePerMinute == 0 {
		cfg.BuildRatePerMinute = 30
	}
	if cfg.MetricsEnabled == nil {
		enabled := true
		cfg.MetricsEnabled = &enabled
	}
}

// Metrics reports whether the Prometheus collector should be installed.
func (c Config) Metrics() bool {
	return c.MetricsEnabled == nil || *c.MetricsEnabled
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if !logger.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if c.MaxPlies < 1 || c.MaxPlies > MaxPliesLimit {
		problems = append(problems, fmt.Sprintf("MAX_PLIES must be between 1 and %d, got %d", MaxPliesLimit, c.MaxPlies))
	}
	if c.BuildQueueSize <= 0 {
		problems = append(problems, "BUILD_QUEUE_SIZE must be positive")
	}
	if c.TreeCacheSize <= 0 {
		problems = append(problems, "TREE_CACHE_SIZE must be positive")
	}
	if c.BuildRatePerMinute <= 0 {
		problems = append(problems, "BUILD_RATE_PER_MINUTE must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
