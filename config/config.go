// Package config loads and validates crawler configuration from
// environment variables and an optional config file.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a crawl run.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Notes   NotesConfig   `mapstructure:"notes"`
	Output  OutputConfig  `mapstructure:"output"`
	Mail    MailConfig    `mapstructure:"mail"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// CrawlConfig holds target endpoints and politeness settings.
type CrawlConfig struct {
	// CatalogBaseURL is the locale-scoped storefront root used to build
	// per-variant product URLs (<base>/product/<slug>/sku-<sku>).
	CatalogBaseURL string `mapstructure:"catalog_base_url"`
	// SearchURL is the paginated search-service query endpoint.
	SearchURL         string        `mapstructure:"search_url"`
	PageSize          int           `mapstructure:"page_size"`
	MaxPages          int           `mapstructure:"max_pages"` // 0 = unlimited
	Timeout           time.Duration `mapstructure:"timeout"`
	DetailRetries     int           `mapstructure:"detail_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	ProxyURL          string        `mapstructure:"proxy_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	RespectRobotsTxt  bool          `mapstructure:"respect_robots_txt"`
	// SeenCapacity bounds the in-run URL dedup set.
	SeenCapacity int `mapstructure:"seen_capacity"`
	// CronSpec, when set, runs the crawl on a schedule instead of once.
	CronSpec string `mapstructure:"cron_spec"`
}

// NotesConfig selects and configures the persistent notes store.
type NotesConfig struct {
	Backend  string `mapstructure:"backend"` // csv or redis
	File     string `mapstructure:"file"`
	RedisURL string `mapstructure:"redis_url"`
	RedisKey string `mapstructure:"redis_key"`
}

// OutputConfig holds report destinations.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	PostgresDSN string `mapstructure:"postgres_dsn"` // optional report sink
}

// MailConfig holds the summary-email settings.
type MailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Sender      string `mapstructure:"sender"`
	Receiver    string `mapstructure:"receiver"`
	AppPassword string `mapstructure:"app_password"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the listener
}

// Load reads configuration from an optional config.yaml plus MPBCRAWL_*
// environment variables, applying defaults for everything unset.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("MPBCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		// No config file; environment variables and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Only static defaults are present, decoding cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.catalog_base_url", "https://www.mpb.com/nl-nl")
	v.SetDefault("crawl.search_url", "https://www.mpb.com/search-service/product/query/")
	v.SetDefault("crawl.page_size", 1000)
	v.SetDefault("crawl.max_pages", 0)
	v.SetDefault("crawl.timeout", "60s")
	v.SetDefault("crawl.detail_retries", 3)
	v.SetDefault("crawl.requests_per_second", 1.0)
	v.SetDefault("crawl.proxy_url", "")
	v.SetDefault("crawl.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/145.0.0.0 Safari/537.36")
	v.SetDefault("crawl.respect_robots_txt", false)
	v.SetDefault("crawl.seen_capacity", 1<<17)
	v.SetDefault("crawl.cron_spec", "")

	v.SetDefault("notes.backend", "csv")
	v.SetDefault("notes.file", "mpb_products_notes.csv")
	v.SetDefault("notes.redis_url", "redis://localhost:6379/0")
	v.SetDefault("notes.redis_key", "mpbcrawl:notes")

	v.SetDefault("output.dir", "output")
	v.SetDefault("output.postgres_dsn", "")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.sender", "")
	v.SetDefault("mail.receiver", "")
	v.SetDefault("mail.app_password", "")

	v.SetDefault("metrics.addr", "")
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Crawl.CatalogBaseURL == "" {
		return fmt.Errorf("catalog base URL cannot be empty")
	}
	if parsed, err := url.Parse(c.Crawl.CatalogBaseURL); err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid catalog base URL %q", c.Crawl.CatalogBaseURL)
	}
	if c.Crawl.SearchURL == "" {
		return fmt.Errorf("search URL cannot be empty")
	}
	if parsed, err := url.Parse(c.Crawl.SearchURL); err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid search URL %q", c.Crawl.SearchURL)
	}
	if c.Crawl.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Crawl.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Crawl.DetailRetries <= 0 {
		return fmt.Errorf("detail retries must be positive")
	}
	if c.Crawl.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if c.Crawl.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Crawl.SeenCapacity <= 0 {
		return fmt.Errorf("seen capacity must be positive")
	}

	switch c.Notes.Backend {
	case "csv":
		if c.Notes.File == "" {
			return fmt.Errorf("notes file cannot be empty")
		}
	case "redis":
		if c.Notes.RedisURL == "" {
			return fmt.Errorf("notes redis URL cannot be empty")
		}
		if c.Notes.RedisKey == "" {
			return fmt.Errorf("notes redis key cannot be empty")
		}
	default:
		return fmt.Errorf("notes backend must be csv or redis")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return fmt.Errorf("mail host cannot be empty when alerts are enabled")
		}
		if c.Mail.Port <= 0 {
			return fmt.Errorf("mail port must be positive when alerts are enabled")
		}
		if c.Mail.Sender == "" {
			return fmt.Errorf("mail sender cannot be empty when alerts are enabled")
		}
		if c.Mail.Receiver == "" {
			return fmt.Errorf("mail receiver cannot be empty when alerts are enabled")
		}
	}

	return nil
}
