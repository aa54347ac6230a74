// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Price parse policies for the transform phase.
const (
	PricePolicyStrict  = "strict"
	PricePolicyLenient = "lenient"
)

// Publish backends for run artifacts.
const (
	PublishNone  = "none"
	PublishLocal = "local"
	PublishGCS   = "gcs"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Transform TransformConfig `mapstructure:"transform"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Publish   PublishConfig   `mapstructure:"publish"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	DB        DBConfig        `mapstructure:"db"`
}

// PathsConfig locates the raw store, audit log and export.
type PathsConfig struct {
	RawDir    string `mapstructure:"raw_dir"`
	ExportDir string `mapstructure:"export_dir"`
}

// CrawlerConfig governs which catalog pages are walked.
type CrawlerConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	FirstPage              int    `mapstructure:"first_page"`
	LastPage               int    `mapstructure:"last_page"`
	UserAgent              string `mapstructure:"user_agent"`
	RespectRobots          bool   `mapstructure:"respect_robots"`
	ContainListingFailures bool   `mapstructure:"contain_listing_failures"`
}

// HTTPConfig configures request timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxAttempts    int `mapstructure:"max_attempts"`
	BackoffStepMs  int `mapstructure:"backoff_step_ms"`
	// RequestsPerSecond caps the request rate; 0 means unlimited.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// TransformConfig controls normalization and the selection predicate.
type TransformConfig struct {
	PricePolicy     string  `mapstructure:"price_policy"`
	MinRating       int     `mapstructure:"min_rating"`
	MaxPriceExclTax float64 `mapstructure:"max_price_excl_tax"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is non-empty.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// PublishConfig selects where run artifacts are archived.
type PublishConfig struct {
	Backend   string `mapstructure:"backend"`
	Prefix    string `mapstructure:"prefix"`
	LocalDir  string `mapstructure:"local_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// DBConfig controls the optional Postgres audit mirror.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.raw_dir", "data/raw")
	v.SetDefault("paths.export_dir", "data/transformed")
	v.SetDefault("crawler.base_url", "http://books.toscrape.com/")
	v.SetDefault("crawler.first_page", 1)
	v.SetDefault("crawler.last_page", 50)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0")
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("crawler.contain_listing_failures", false)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_step_ms", 1500)
	v.SetDefault("http.requests_per_second", 0)
	v.SetDefault("transform.price_policy", PricePolicyStrict)
	v.SetDefault("transform.min_rating", 4)
	v.SetDefault("transform.max_price_excl_tax", 20.0)
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("publish.backend", PublishNone)
	v.SetDefault("publish.prefix", "runs")
	v.SetDefault("db.table", "fetch_outcomes")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.RawDir) == "" {
		return fmt.Errorf("paths.raw_dir is required")
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		return fmt.Errorf("paths.export_dir is required")
	}
	if strings.TrimSpace(c.Crawler.BaseURL) == "" {
		return fmt.Errorf("crawler.base_url is required")
	}
	if c.Crawler.FirstPage <= 0 {
		return fmt.Errorf("crawler.first_page must be > 0")
	}
	if c.Crawler.LastPage < c.Crawler.FirstPage {
		return fmt.Errorf("crawler.last_page must be >= crawler.first_page")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be > 0")
	}
	if c.HTTP.BackoffStepMs < 0 {
		return fmt.Errorf("http.backoff_step_ms must be >= 0")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must be >= 0")
	}
	switch c.Transform.PricePolicy {
	case PricePolicyStrict, PricePolicyLenient:
	default:
		return fmt.Errorf("transform.price_policy must be %q or %q", PricePolicyStrict, PricePolicyLenient)
	}
	if c.Transform.MinRating < 0 || c.Transform.MinRating > 5 {
		return fmt.Errorf("transform.min_rating must be between 0 and 5")
	}
	switch c.Publish.Backend {
	case "", PublishNone:
	case PublishLocal:
		if strings.TrimSpace(c.Publish.LocalDir) == "" {
			return fmt.Errorf("publish.local_dir must be set when publish.backend is local")
		}
	case PublishGCS:
		if strings.TrimSpace(c.Publish.GCSBucket) == "" {
			return fmt.Errorf("publish.gcs_bucket must be set when publish.backend is gcs")
		}
	default:
		return fmt.Errorf("unknown publish.backend %q", c.Publish.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// RequestTimeout converts the HTTP timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffStep converts the linear backoff step into a duration.
func (c Config) BackoffStep() time.Duration {
	return time.Duration(c.HTTP.BackoffStepMs) * time.Millisecond
}
