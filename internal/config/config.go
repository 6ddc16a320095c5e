package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	AppName    = "Verso"
	AppVersion = "1.0.0"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// Config is the process configuration. Values come from an optional YAML
// file (VERSO_CONFIG) and are then overridden by VERSO_* environment variables.
type Config struct {
	Addr      string `yaml:"addr"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	StaticDir string `yaml:"static_dir"`
	HTTPProxy string `yaml:"http_proxy"`

	Store           string `yaml:"store"`
	MongoURL        string `yaml:"mongodb_url"`
	MongoDatabase   string `yaml:"mongodb_database"`
	MongoCollection string `yaml:"mongodb_collection"`
	DataDir         string `yaml:"data_dir"`
	DBPath          string `yaml:"db_path"`
	SnowflakeNode   int64  `yaml:"snowflake_node"`

	DefaultTargetLanguage string `yaml:"default_target_language"`

	Model    ModelConfig    `yaml:"model"`
	Tracking TrackingConfig `yaml:"tracking"`
}

// ModelConfig selects the inference backend used by the translator.
type ModelConfig struct {
	Provider string        `yaml:"provider"`
	Name     string        `yaml:"name"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	QPS      int           `yaml:"qps"`
	Timeout  time.Duration `yaml:"timeout"`
	// StripHTML removes markup from model input. Off by default since it
	// also drops plain text that looks like a tag.
	StripHTML bool `yaml:"strip_html"`
}

// TrackingConfig points the inference side channel at an experiment tracker.
// An empty URI disables tracking.
type TrackingConfig struct {
	URI        string `yaml:"uri"`
	Experiment string `yaml:"experiment"`
	QueueSize  int    `yaml:"queue_size"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:                  ":8000",
		Env:                   "development",
		LogLevel:              "info",
		LogFormat:             "text",
		MongoCollection:       "translations",
		DataDir:               "./data",
		SnowflakeNode:         1,
		DefaultTargetLanguage: "en",
		Model: ModelConfig{
			Provider: "seq2seq",
			Name:     "Helsinki-NLP/opus-mt-en-de",
			QPS:      10,
			Timeout:  60 * time.Second,
		},
		Tracking: TrackingConfig{
			URI:        "file:./mlflow_logs",
			Experiment: "translation_service",
			QueueSize:  256,
		},
	}
}

// Load reads the optional YAML file and the environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("VERSO_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)

	if cfg.Store == "" {
		if cfg.MongoURL != "" {
			cfg.Store = StoreMongo
		} else {
			cfg.Store = StoreSQLite
		}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "verso.db")
	}
	cfg.DBPath = filepath.Clean(cfg.DBPath)
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	if cfg.StaticDir == "" {
		cfg.StaticDir = detectStaticDir()
	}

	return cfg, cfg.Validate()
}

// Validate checks the combinations Load cannot default away.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMongo:
		if c.MongoURL == "" {
			return fmt.Errorf("store %q requires VERSO_MONGODB_URL", c.Store)
		}
	case StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("snowflake node %d out of range 0-1023", c.SnowflakeNode)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}

// Production reports whether error details should be redacted.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	envString("VERSO_ADDR", &cfg.Addr)
	envString("VERSO_ENV", &cfg.Env)
	envString("VERSO_LOG_LEVEL", &cfg.LogLevel)
	envString("VERSO_LOG_FORMAT", &cfg.LogFormat)
	envString("VERSO_STATIC_DIR", &cfg.StaticDir)
	envString("VERSO_HTTP_PROXY", &cfg.HTTPProxy)

	envString("VERSO_STORE", &cfg.Store)
	envString("VERSO_MONGODB_URL", &cfg.MongoURL)
	envString("VERSO_MONGODB_DATABASE", &cfg.MongoDatabase)
	envString("VERSO_MONGODB_COLLECTION", &cfg.MongoCollection)
	envString("VERSO_DATA_DIR", &cfg.DataDir)
	envString("VERSO_DB_PATH", &cfg.DBPath)
	envInt64("VERSO_SNOWFLAKE_NODE", &cfg.SnowflakeNode)

	envString("VERSO_DEFAULT_TARGET_LANGUAGE", &cfg.DefaultTargetLanguage)

	envString("VERSO_MODEL_PROVIDER", &cfg.Model.Provider)
	envString("VERSO_MODEL_NAME", &cfg.Model.Name)
	envString("VERSO_MODEL_BASE_URL", &cfg.Model.BaseURL)
	envString("VERSO_MODEL_API_KEY", &cfg.Model.APIKey)
	envInt("VERSO_MODEL_QPS", &cfg.Model.QPS)
	envDuration("VERSO_MODEL_TIMEOUT", &cfg.Model.Timeout)
	envBool("VERSO_MODEL_STRIP_HTML", &cfg.Model.StripHTML)

	envString("VERSO_TRACKING_URI", &cfg.Tracking.URI)
	envString("VERSO_TRACKING_EXPERIMENT", &cfg.Tracking.Experiment)
	envInt("VERSO_TRACKING_QUEUE_SIZE", &cfg.Tracking.QueueSize)

	// MONGODB_URL is accepted for existing deployments.
	if cfg.MongoURL == "" {
		envString("MONGODB_URL", &cfg.MongoURL)
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envInt64(key string, dst *int64) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		*dst = n
	}
}

func envBool(key string, dst *bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

func envDuration(key string, dst *time.Duration) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func detectStaticDir() string {
	candidates := []string{
		"./frontend/build",
		"../frontend/build",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "index.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
