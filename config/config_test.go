package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory so no stray .env file is
// picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("ENV_FILE", "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultListingURL, cfg.Target.ListingURL)
	assert.Equal(t, 6, cfg.Target.Count)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Scraper.CandidateDelay)
	assert.Equal(t, 3, cfg.Scraper.MaxStaleRetries)
	assert.Equal(t, "output.csv", cfg.Output.CSVPath)
	assert.Equal(t, "no_projects_found.png", cfg.Output.EmptyScreenshot)
	assert.Empty(t, cfg.Status.Addr)
	assert.Empty(t, cfg.Webhook.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("RERA_TARGET_COUNT", "10")
	t.Setenv("RERA_HEADLESS", "false")
	t.Setenv("RERA_FIELD_TIMEOUT", "750ms")
	t.Setenv("RERA_BLOCKED_RESOURCES", " Image , ,Stylesheet")
	t.Setenv("RERA_OUTPUT_XLSX", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Target.Count)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 750*time.Millisecond, cfg.Scraper.FieldTimeout)
	assert.Equal(t, []string{"Image", "Stylesheet"}, cfg.Browser.BlockedResourceTypes)
	// An empty variable falls back to the default.
	assert.Equal(t, "output.xlsx", cfg.Output.XLSXPath)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	isolate(t)
	t.Setenv("RERA_TARGET_COUNT", "six")
	t.Setenv("RERA_NAV_TIMEOUT", "30")
	t.Setenv("RERA_STEALTH", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetCount, cfg.Target.Count)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.False(t, cfg.Browser.Stealth)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("RERA_TARGET_COUNT=3\nRERA_STATUS_ADDR=:8089\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("RERA_TARGET_COUNT", "")
	t.Setenv("RERA_STATUS_ADDR", "")
	os.Unsetenv("RERA_TARGET_COUNT")
	os.Unsetenv("RERA_STATUS_ADDR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Target.Count)
	assert.Equal(t, ":8089", cfg.Status.Addr)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RERA_TARGET_COUNT=3\n"), 0o600))
	t.Setenv("RERA_TARGET_COUNT", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Target.Count)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Target:  TargetConfig{ListingURL: DefaultListingURL, Count: 6},
			Output:  OutputConfig{CSVPath: "output.csv"},
			Scraper: ScraperConfig{MaxStaleRetries: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero retries allowed", func(c *Config) { c.Scraper.MaxStaleRetries = 0 }, false},
		{"empty url", func(c *Config) { c.Target.ListingURL = "" }, true},
		{"zero target", func(c *Config) { c.Target.Count = 0 }, true},
		{"no csv path", func(c *Config) { c.Output.CSVPath = "" }, true},
		{"negative retries", func(c *Config) { c.Scraper.MaxStaleRetries = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
