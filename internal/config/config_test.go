package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty dir so no config.yaml is picked up.
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "investor-scout.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Server.MaxUploadMB)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)
	assert.Equal(t, "America/New_York", cfg.Browser.Timezone)
	assert.Len(t, cfg.Browser.UserAgents, 5)
	assert.Equal(t, 30, cfg.Fetch.NavTimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.SettleSecs)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 3, cfg.Fetch.RetryBackoffSecs)
	assert.True(t, cfg.Fetch.HTTPFallback)
	assert.Equal(t, 8, cfg.Search.MaxResults)
	assert.Equal(t, 5, cfg.Search.PriorityCap)
	assert.InDelta(t, 3.0, cfg.Search.InterEngineDelay.MinSecs, 0.001)
	assert.InDelta(t, 5.0, cfg.Search.InterEngineDelay.MaxSecs, 0.001)
	assert.Equal(t, 5, cfg.Resolver.MaxPagesPerQuery)
	assert.Equal(t, 2, cfg.Resolver.EarlyExitMinEmails)
	assert.Equal(t, []string{"linkedin.com"}, cfg.Resolver.AuthorityHosts)
	assert.InDelta(t, 5.0, cfg.Resolver.QueryEmptyDelay.MinSecs, 0.001)
	assert.InDelta(t, 8.0, cfg.Resolver.QueryEmptyDelay.MaxSecs, 0.001)
	assert.InDelta(t, 8.0, cfg.Batch.InvestorDelay.MinSecs, 0.001)
	assert.InDelta(t, 15.0, cfg.Batch.InvestorDelay.MaxSecs, 0.001)
	assert.Equal(t, 10, cfg.Batch.CheckpointEvery)
	assert.InDelta(t, 12.0, cfg.Server.InvestorDelay.MinSecs, 0.001)
	assert.InDelta(t, 25.0, cfg.Server.InvestorDelay.MaxSecs, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/scout
log:
  level: debug
  format: console
search:
  max_results: 12
batch:
  investor_delay:
    min_secs: 1
    max_secs: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/scout", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 12, cfg.Search.MaxResults)
	assert.InDelta(t, 1.0, cfg.Batch.InvestorDelay.MinSecs, 0.001)
	assert.InDelta(t, 2.0, cfg.Batch.InvestorDelay.MaxSecs, 0.001)
	// Sections the file leaves out keep their defaults.
	assert.Equal(t, 5, cfg.Resolver.MaxPagesPerQuery)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SCOUT_STORE_DRIVER", "postgres")
	t.Setenv("SCOUT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// The env value wins over the file.
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SCOUT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with the fields Validate cares about populated.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Fetch.MaxAttempts = 3
	cfg.Search.MaxResults = 8
	cfg.Search.InterEngineDelay = DelayRange{MinSecs: 3, MaxSecs: 5}
	cfg.Resolver.MaxPagesPerQuery = 5
	cfg.Resolver.PageDelay = DelayRange{MinSecs: 3, MaxSecs: 6}
	cfg.Resolver.QueryFoundDelay = DelayRange{MinSecs: 2, MaxSecs: 4}
	cfg.Resolver.QueryEmptyDelay = DelayRange{MinSecs: 5, MaxSecs: 8}
	cfg.Batch.InvestorDelay = DelayRange{MinSecs: 8, MaxSecs: 15}
	cfg.Batch.CheckpointEvery = 10
	cfg.Server.Port = 8080
	cfg.Server.UploadDir = "data/uploads"
	cfg.Server.ResultsDir = "data/results"
	return cfg
}

func TestValidateRun(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateBadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateInvertedDelayRange(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.InvestorDelay = DelayRange{MinSecs: 10, MaxSecs: 2}

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.investor_delay")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("funnel")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
