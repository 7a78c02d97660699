package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Booking BookingConfig `yaml:"booking"`

	Intent IntentConfig `yaml:"intent"`

	Input struct {
		MinLength int `yaml:"min_length"`
		MaxLength int `yaml:"max_length"`
	} `yaml:"input"`

	Oracle OracleConfig `yaml:"oracle"`

	Database struct {
		Driver string `yaml:"driver"` // memory or sqlite
		Path   string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Backup BackupConfig `yaml:"backup"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	// Professions maps a profession name to extra keywords hinting at it.
	Professions map[string][]string `yaml:"professions"`
}

type BookingConfig struct {
	Timezone            string `yaml:"timezone"`
	EarliestHour        int    `yaml:"earliest_hour"`
	LatestHour          int    `yaml:"latest_hour"`
	DefaultHour         int    `yaml:"default_hour"`
	DefaultCustomerName string `yaml:"default_customer_name"`
	DefaultProfession   string `yaml:"default_profession"`
	Seed                bool   `yaml:"seed"`
}

type IntentConfig struct {
	Threshold    float64 `yaml:"threshold"`
	OracleWeight float64 `yaml:"oracle_weight"`
	RuleWeight   float64 `yaml:"rule_weight"`
	RuleBoost    float64 `yaml:"rule_boost"`
}

type OracleConfig struct {
	Provider        string  `yaml:"provider"` // huggingface, gemini or keyword
	BaseURL         string  `yaml:"base_url"`
	APIToken        string  `yaml:"api_token"`
	ClassifierModel string  `yaml:"classifier_model"`
	NERModel        string  `yaml:"ner_model"`
	GeminiAPIKey    string  `yaml:"gemini_api_key"`
	GeminiModel     string  `yaml:"gemini_model"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	LoadRetries     int     `yaml:"load_retries"`
	BackoffMillis   int     `yaml:"backoff_ms"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	Burst           int     `yaml:"burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML file at path. A missing file yields defaults only.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err = cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "sqlite" {
		if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyEnv honours the flat environment overrides used by deployments.
func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("TIMEZONE", &c.Booking.Timezone)
	str("DEFAULT_CUSTOMER_NAME", &c.Booking.DefaultCustomerName)
	str("DEFAULT_PROFESSION", &c.Booking.DefaultProfession)
	str("ZERO_SHOT_MODEL_NAME", &c.Oracle.ClassifierModel)
	str("NER_MODEL_NAME", &c.Oracle.NERModel)
	str("LOG_LEVEL", &c.Log.Level)

	if err := num("DEFAULT_BOOKING_HOUR", &c.Booking.DefaultHour); err != nil {
		return err
	}
	if err := num("LAST_BOOKING_HOUR", &c.Booking.LatestHour); err != nil {
		return err
	}
	if err := num("MODEL_LOAD_RETRIES", &c.Oracle.LoadRetries); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("INTENT_CONFIDENCE_THRESHOLD"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("INTENT_CONFIDENCE_THRESHOLD: %w", err)
		}
		c.Intent.Threshold = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "techbook"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.EarliestHour == 0 {
		c.Booking.EarliestHour = 9
	}
	if c.Booking.LatestHour == 0 {
		c.Booking.LatestHour = 18
	}
	if c.Booking.DefaultHour == 0 {
		c.Booking.DefaultHour = c.Booking.EarliestHour
	}
	if c.Booking.DefaultCustomerName == "" {
		c.Booking.DefaultCustomerName = "Anonymous Customer"
	}
	if c.Booking.DefaultProfession == "" {
		c.Booking.DefaultProfession = "Plumber"
	}

	if c.Intent.Threshold == 0 {
		c.Intent.Threshold = 0.3
	}
	if c.Intent.OracleWeight == 0 {
		c.Intent.OracleWeight = 0.7
	}
	if c.Intent.RuleWeight == 0 {
		c.Intent.RuleWeight = 0.5
	}
	if c.Intent.RuleBoost == 0 {
		c.Intent.RuleBoost = 0.95
	}

	if c.Input.MinLength == 0 {
		c.Input.MinLength = 3
	}
	if c.Input.MaxLength == 0 {
		c.Input.MaxLength = 512
	}

	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "keyword"
	}
	if c.Oracle.BaseURL == "" {
		c.Oracle.BaseURL = "https://api-inference.huggingface.co/models"
	}
	if c.Oracle.ClassifierModel == "" {
		c.Oracle.ClassifierModel = "facebook/bart-large-mnli"
	}
	if c.Oracle.NERModel == "" {
		c.Oracle.NERModel = "dbmdz/bert-large-cased-finetuned-conll03-english"
	}
	if c.Oracle.GeminiModel == "" {
		c.Oracle.GeminiModel = "models/gemini-1.5-flash"
	}
	if c.Oracle.TimeoutSeconds <= 0 {
		c.Oracle.TimeoutSeconds = 10
	}
	if c.Oracle.LoadRetries <= 0 {
		c.Oracle.LoadRetries = 3
	}
	if c.Oracle.BackoffMillis <= 0 {
		c.Oracle.BackoffMillis = 500
	}
	if c.Oracle.RatePerSecond <= 0 {
		c.Oracle.RatePerSecond = 5
	}
	if c.Oracle.Burst <= 0 {
		c.Oracle.Burst = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/techbook.db"
	}

	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "@daily"
	}
	if c.Backup.Path == "" {
		c.Backup.Path = "backups"
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}

	if c.Professions == nil {
		c.Professions = DefaultProfessionKeywords()
	}
}

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	var problems []string

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("booking.timezone: unknown location %q", c.Booking.Timezone))
	}
	if c.Booking.EarliestHour < 0 || c.Booking.LatestHour > 24 || c.Booking.EarliestHour >= c.Booking.LatestHour {
		problems = append(problems, fmt.Sprintf("booking: invalid business hours [%d, %d)", c.Booking.EarliestHour, c.Booking.LatestHour))
	}
	if c.Booking.DefaultHour < c.Booking.EarliestHour || c.Booking.DefaultHour >= c.Booking.LatestHour {
		problems = append(problems, fmt.Sprintf("booking.default_hour: %d outside business hours", c.Booking.DefaultHour))
	}
	if c.Intent.Threshold < 0 || c.Intent.Threshold > 1 {
		problems = append(problems, fmt.Sprintf("intent.threshold: %.2f not in [0,1]", c.Intent.Threshold))
	}
	if c.Input.MinLength > c.Input.MaxLength {
		problems = append(problems, "input: min_length exceeds max_length")
	}
	switch c.Oracle.Provider {
	case "huggingface", "keyword":
	case "gemini":
		if c.Oracle.GeminiAPIKey == "" {
			problems = append(problems, "oracle.gemini_api_key: required for gemini provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("oracle.provider: unknown provider %q", c.Oracle.Provider))
	}
	switch c.Database.Driver {
	case "memory", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database.driver: unknown driver %q", c.Database.Driver))
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		problems = append(problems, "telegram.bot_token: required when telegram is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the configured booking timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o OracleConfig) Backoff() time.Duration {
	return time.Duration(o.BackoffMillis) * time.Millisecond
}

func (o OracleConfig) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLSeconds) * time.Second
}

func (b BackupConfig) Retention() time.Duration {
	return time.Duration(b.RetentionDays) * 24 * time.Hour
}
