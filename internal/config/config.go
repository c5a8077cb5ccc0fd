package config

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// DelayRange bounds a randomized pause. Every pacing knob in the pipeline is
// expressed this way so stealth timing is tunable without code changes.
type DelayRange struct {
	MinSecs float64 `yaml:"min_secs" mapstructure:"min_secs"`
	MaxSecs float64 `yaml:"max_secs" mapstructure:"max_secs"`
}

// Pick draws a uniformly random duration from the range.
func (d DelayRange) Pick() time.Duration {
	if d.MaxSecs <= d.MinSecs {
		return time.Duration(d.MinSecs * float64(time.Second))
	}
	secs := d.MinSecs + rand.Float64()*(d.MaxSecs-d.MinSecs)
	return time.Duration(secs * float64(time.Second))
}

// StoreConfig configures the batch-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BrowserConfig configures the headless browser used for fetching.
type BrowserConfig struct {
	Headless     bool     `yaml:"headless" mapstructure:"headless"`
	ChromePath   string   `yaml:"chrome_path" mapstructure:"chrome_path"`
	WindowWidth  int      `yaml:"window_width" mapstructure:"window_width"`
	WindowHeight int      `yaml:"window_height" mapstructure:"window_height"`
	Locale       string   `yaml:"locale" mapstructure:"locale"`
	Timezone     string   `yaml:"timezone" mapstructure:"timezone"`
	UserAgents   []string `yaml:"user_agents" mapstructure:"user_agents"`
}

// FetchConfig configures page fetching and retry behavior.
type FetchConfig struct {
	NavTimeoutSecs   int  `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleSecs       int  `yaml:"settle_secs" mapstructure:"settle_secs"`
	MaxAttempts      int  `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryBackoffSecs int  `yaml:"retry_backoff_secs" mapstructure:"retry_backoff_secs"`
	CacheSize        int  `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins     int  `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	HTTPFallback     bool `yaml:"http_fallback" mapstructure:"http_fallback"`
	MaxBodyKB        int  `yaml:"max_body_kb" mapstructure:"max_body_kb"`
}

// SearchConfig configures the search-engine harvester.
type SearchConfig struct {
	MaxResults       int        `yaml:"max_results" mapstructure:"max_results"`
	PriorityCap      int        `yaml:"priority_cap" mapstructure:"priority_cap"`
	EnginesFile      string     `yaml:"engines_file" mapstructure:"engines_file"`
	EngineRPS        float64    `yaml:"engine_rps" mapstructure:"engine_rps"`
	EngineBurst      int        `yaml:"engine_burst" mapstructure:"engine_burst"`
	InterEngineDelay DelayRange `yaml:"inter_engine_delay" mapstructure:"inter_engine_delay"`
	FailureThreshold int        `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int        `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ResolverConfig configures per-investor discovery.
type ResolverConfig struct {
	MaxPagesPerQuery   int        `yaml:"max_pages_per_query" mapstructure:"max_pages_per_query"`
	EarlyExitMinEmails int        `yaml:"early_exit_min_emails" mapstructure:"early_exit_min_emails"`
	AuthorityHosts     []string   `yaml:"authority_hosts" mapstructure:"authority_hosts"`
	PageDelay          DelayRange `yaml:"page_delay" mapstructure:"page_delay"`
	QueryFoundDelay    DelayRange `yaml:"query_found_delay" mapstructure:"query_found_delay"`
	QueryEmptyDelay    DelayRange `yaml:"query_empty_delay" mapstructure:"query_empty_delay"`
}

// BatchConfig configures the batch loop.
type BatchConfig struct {
	InvestorDelay   DelayRange `yaml:"investor_delay" mapstructure:"investor_delay"`
	CheckpointEvery int        `yaml:"checkpoint_every" mapstructure:"checkpoint_every"`
}

// NotionConfig holds Notion API credentials and the names database.
type NotionConfig struct {
	Token        string `yaml:"token" mapstructure:"token"`
	NamesDB      string `yaml:"names_db" mapstructure:"names_db"`
	NameProperty string `yaml:"name_property" mapstructure:"name_property"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port          int        `yaml:"port" mapstructure:"port"`
	UploadDir     string     `yaml:"upload_dir" mapstructure:"upload_dir"`
	ResultsDir    string     `yaml:"results_dir" mapstructure:"results_dir"`
	MaxUploadMB   int        `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	InvestorDelay DelayRange `yaml:"investor_delay" mapstructure:"investor_delay"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// defaultUserAgents is the rotation pool reported to target sites.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:120.0) Gecko/20100101 Firefox/120.0",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "investor-scout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "data/uploads")
	v.SetDefault("server.results_dir", "data/results")
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("server.investor_delay.min_secs", 12.0)
	v.SetDefault("server.investor_delay.max_secs", 25.0)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.locale", "en-US")
	v.SetDefault("browser.timezone", "America/New_York")
	v.SetDefault("browser.user_agents", defaultUserAgents)
	v.SetDefault("fetch.nav_timeout_secs", 30)
	v.SetDefault("fetch.settle_secs", 3)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.retry_backoff_secs", 3)
	v.SetDefault("fetch.cache_size", 256)
	v.SetDefault("fetch.cache_ttl_mins", 30)
	v.SetDefault("fetch.http_fallback", true)
	v.SetDefault("fetch.max_body_kb", 2048)
	v.SetDefault("search.max_results", 8)
	v.SetDefault("search.priority_cap", 5)
	v.SetDefault("search.engine_rps", 0.5)
	v.SetDefault("search.engine_burst", 1)
	v.SetDefault("search.inter_engine_delay.min_secs", 3.0)
	v.SetDefault("search.inter_engine_delay.max_secs", 5.0)
	v.SetDefault("search.failure_threshold", 3)
	v.SetDefault("search.reset_timeout_secs", 120)
	v.SetDefault("resolver.max_pages_per_query", 5)
	v.SetDefault("resolver.early_exit_min_emails", 2)
	v.SetDefault("resolver.authority_hosts", []string{"linkedin.com"})
	v.SetDefault("resolver.page_delay.min_secs", 3.0)
	v.SetDefault("resolver.page_delay.max_secs", 6.0)
	v.SetDefault("resolver.query_found_delay.min_secs", 2.0)
	v.SetDefault("resolver.query_found_delay.max_secs", 4.0)
	v.SetDefault("resolver.query_empty_delay.min_secs", 5.0)
	v.SetDefault("resolver.query_empty_delay.max_secs", 8.0)
	v.SetDefault("batch.investor_delay.min_secs", 8.0)
	v.SetDefault("batch.investor_delay.max_secs", 15.0)
	v.SetDefault("batch.checkpoint_every", 10)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given mode ("run" or "serve").
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Fetch.MaxAttempts < 1 {
		problems = append(problems, "fetch.max_attempts must be >= 1")
	}
	if c.Search.MaxResults < 1 {
		problems = append(problems, "search.max_results must be >= 1")
	}
	if c.Resolver.MaxPagesPerQuery < 1 {
		problems = append(problems, "resolver.max_pages_per_query must be >= 1")
	}
	if c.Batch.CheckpointEvery < 1 {
		problems = append(problems, "batch.checkpoint_every must be >= 1")
	}
	for _, r := range []struct {
		name string
		dr   DelayRange
	}{
		{"search.inter_engine_delay", c.Search.InterEngineDelay},
		{"resolver.page_delay", c.Resolver.PageDelay},
		{"resolver.query_found_delay", c.Resolver.QueryFoundDelay},
		{"resolver.query_empty_delay", c.Resolver.QueryEmptyDelay},
		{"batch.investor_delay", c.Batch.InvestorDelay},
	} {
		if r.dr.MinSecs < 0 || r.dr.MaxSecs < r.dr.MinSecs {
			problems = append(problems, r.name+" must satisfy 0 <= min_secs <= max_secs")
		}
	}

	switch mode {
	case "run":
		// No extra requirements; sqlite needs no URL beyond the default path.
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Server.UploadDir == "" || c.Server.ResultsDir == "" {
			problems = append(problems, "server.upload_dir and server.results_dir are required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
