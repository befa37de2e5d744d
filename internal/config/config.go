package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the vacmatch service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Cache    CacheConfig    `yaml:"cache"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Matching MatchingConfig `yaml:"matching"`

	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// MaintenanceConfig holds the periodic housekeeping settings.
type MaintenanceConfig struct {
	IntervalHours    int `yaml:"interval_hours"`
	RetireBatchLimit int `yaml:"retire_batch_limit"`
}

// AuthConfig holds API authentication settings. An empty key list disables
// authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// PostgresConfig holds the posting storage connection settings.
type PostgresConfig struct {
	URL              string `yaml:"url"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the Redis cache connection settings.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// DedupConfig holds duplicate-detection tunables.
type DedupConfig struct {
	// SimilarityThreshold is the fingerprint similarity above which two
	// postings are the same underlying listing, both for the in-batch check
	// and the pg_trgm query.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxFingerprintBytes int     `yaml:"max_fingerprint_bytes"`
}

// MatchingConfig holds ranking tunables. Defaults mirror the constants the
// scoring formula was originally tuned with.
type MatchingConfig struct {
	RecencyWindowDays    int     `yaml:"recency_window_days"`
	MinSimilarityPercent float64 `yaml:"min_similarity_percent"`
	MinSkillsCount       int     `yaml:"min_skills_count"`
	BonusPerExtraSkill   float64 `yaml:"bonus_per_extra_skill"`
	MissingSkillPenalty  float64 `yaml:"missing_skill_penalty"`
	SubsetBonus          float64 `yaml:"subset_bonus"`
	RecencyBonusDays     int     `yaml:"recency_bonus_days"`
	RecencyBonusPerDay   float64 `yaml:"recency_bonus_per_day"`
	ResultLimit          int     `yaml:"result_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Postgres.ReadinessTimeout <= 0 {
		c.Postgres.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Dedup.SimilarityThreshold <= 0 {
		c.Dedup.SimilarityThreshold = 0.85
	}
	if c.Dedup.MaxFingerprintBytes <= 0 {
		c.Dedup.MaxFingerprintBytes = 2704
	}
	if c.Matching.RecencyWindowDays <= 0 {
		c.Matching.RecencyWindowDays = 21
	}
	if c.Matching.MinSimilarityPercent <= 0 {
		c.Matching.MinSimilarityPercent = 60
	}
	if c.Matching.MinSkillsCount <= 0 {
		c.Matching.MinSkillsCount = 5
	}
	if c.Matching.BonusPerExtraSkill <= 0 {
		c.Matching.BonusPerExtraSkill = 7
	}
	if c.Matching.MissingSkillPenalty <= 0 {
		c.Matching.MissingSkillPenalty = 5
	}
	if c.Matching.SubsetBonus <= 0 {
		c.Matching.SubsetBonus = 15
	}
	if c.Matching.RecencyBonusDays <= 0 {
		c.Matching.RecencyBonusDays = 7
	}
	if c.Matching.RecencyBonusPerDay <= 0 {
		c.Matching.RecencyBonusPerDay = 15
	}
	if c.Matching.ResultLimit <= 0 {
		c.Matching.ResultLimit = 50
	}
	if c.Maintenance.IntervalHours <= 0 {
		c.Maintenance.IntervalHours = 6
	}
	if c.Maintenance.RetireBatchLimit <= 0 {
		c.Maintenance.RetireBatchLimit = 500
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres.url is required")
	}
	if len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required")
	}
	if c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("dedup.similarity_threshold must be in (0, 1], got %v", c.Dedup.SimilarityThreshold)
	}
	if c.Matching.MinSimilarityPercent > 100 {
		return fmt.Errorf("matching.min_similarity_percent must be at most 100, got %v", c.Matching.MinSimilarityPercent)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
