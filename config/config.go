package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fixed run profile. Environment variables may override these, but there
// are no command-line flags.
const (
	DefaultListingURL  = "https://rera.odisha.gov.in/projects/project-list"
	DefaultTargetCount = 6
)

// Config holds all application configuration.
type Config struct {
	Target  TargetConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Output  OutputConfig
	Log     LogConfig
	Status  StatusConfig
	Webhook WebhookConfig
}

// TargetConfig describes what a run collects.
type TargetConfig struct {
	// ListingURL is the paginated project listing page.
	ListingURL string

	// Count is the number of successful records the run stops at.
	Count int // default: 6
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in containers).
	NoSandbox bool // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to the launcher when set.
	Proxy string

	// WindowWidth and WindowHeight fix the viewport.
	WindowWidth  int // default: 1920
	WindowHeight int // default: 1080

	// Stealth injects the go-rod/stealth script into the session page.
	Stealth bool // default: false

	// BlockedResourceTypes lists resource types blocked on the listing page.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// ScraperConfig holds every bounded wait used by the extraction pipeline.
type ScraperConfig struct {
	NavigationTimeout  time.Duration // default: 30s
	ListingTimeout     time.Duration // default: 15s
	WideningTimeout    time.Duration // default: 10s
	DetailRootTimeout  time.Duration // default: 10s
	DetailFieldTimeout time.Duration // default: 10s
	FieldTimeout       time.Duration // default: 5s
	TabTimeout         time.Duration // default: 5s
	PopupTimeout       time.Duration // default: 10s
	DetailPopupTimeout time.Duration // default: 3s
	NewTabTimeout      time.Duration // default: 3s

	// SettleDelay bounds DOM-stability waits after navigation actions.
	SettleDelay time.Duration // default: 1s

	// CandidateDelay is the minimum spacing between two candidates.
	CandidateDelay time.Duration // default: 2s

	// MaxStaleRetries caps listing reloads for a single candidate slot.
	MaxStaleRetries int // default: 3

	// Probe enables the plain-HTTP preflight check of the listing URL.
	Probe        bool          // default: true
	ProbeTimeout time.Duration // default: 10s
}

// OutputConfig controls where results and diagnostics are written.
type OutputConfig struct {
	CSVPath         string // default: "output.csv"
	XLSXPath        string // default: "output.xlsx"; empty disables
	ErrorScreenshot string // default: "error_screenshot.png"
	EmptyScreenshot string // default: "no_projects_found.png"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// StatusConfig controls the optional read-only status server.
type StatusConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string
	Mode string // gin mode; default: "release"
}

// WebhookConfig controls the run-completed notification.
type WebhookConfig struct {
	// URL is the endpoint; empty disables delivery.
	URL    string
	Secret string
}

// Load reads configuration from .env files and environment variables with
// defaults matching the fixed run profile.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Target: TargetConfig{
			ListingURL: envOr("RERA_LISTING_URL", DefaultListingURL),
			Count:      envIntOr("RERA_TARGET_COUNT", DefaultTargetCount),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("RERA_HEADLESS", true),
			NoSandbox:    envBoolOr("RERA_NO_SANDBOX", true),
			BrowserBin:   os.Getenv("RERA_BROWSER_BIN"),
			Proxy:        os.Getenv("RERA_PROXY"),
			WindowWidth:  envIntOr("RERA_WINDOW_WIDTH", 1920),
			WindowHeight: envIntOr("RERA_WINDOW_HEIGHT", 1080),
			Stealth:      envBoolOr("RERA_STEALTH", false),
			BlockedResourceTypes: envSliceOr("RERA_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Scraper: ScraperConfig{
			NavigationTimeout:  envDurationOr("RERA_NAV_TIMEOUT", 30*time.Second),
			ListingTimeout:     envDurationOr("RERA_LISTING_TIMEOUT", 15*time.Second),
			WideningTimeout:    envDurationOr("RERA_WIDENING_TIMEOUT", 10*time.Second),
			DetailRootTimeout:  envDurationOr("RERA_DETAIL_ROOT_TIMEOUT", 10*time.Second),
			DetailFieldTimeout: envDurationOr("RERA_DETAIL_FIELD_TIMEOUT", 10*time.Second),
			FieldTimeout:       envDurationOr("RERA_FIELD_TIMEOUT", 5*time.Second),
			TabTimeout:         envDurationOr("RERA_TAB_TIMEOUT", 5*time.Second),
			PopupTimeout:       envDurationOr("RERA_POPUP_TIMEOUT", 10*time.Second),
			DetailPopupTimeout: envDurationOr("RERA_DETAIL_POPUP_TIMEOUT", 3*time.Second),
			NewTabTimeout:      envDurationOr("RERA_NEW_TAB_TIMEOUT", 3*time.Second),
			SettleDelay:        envDurationOr("RERA_SETTLE_DELAY", 1*time.Second),
			CandidateDelay:     envDurationOr("RERA_CANDIDATE_DELAY", 2*time.Second),
			MaxStaleRetries:    envIntOr("RERA_MAX_STALE_RETRIES", 3),
			Probe:              envBoolOr("RERA_PROBE", true),
			ProbeTimeout:       envDurationOr("RERA_PROBE_TIMEOUT", 10*time.Second),
		},
		Output: OutputConfig{
			CSVPath:         envOr("RERA_OUTPUT_CSV", "output.csv"),
			XLSXPath:        envOr("RERA_OUTPUT_XLSX", "output.xlsx"),
			ErrorScreenshot: envOr("RERA_ERROR_SCREENSHOT", "error_screenshot.png"),
			EmptyScreenshot: envOr("RERA_EMPTY_SCREENSHOT", "no_projects_found.png"),
		},
		Log: LogConfig{
			Level:  envOr("RERA_LOG_LEVEL", "info"),
			Format: envOr("RERA_LOG_FORMAT", "json"),
		},
		Status: StatusConfig{
			Addr: os.Getenv("RERA_STATUS_ADDR"),
			Mode: envOr("RERA_STATUS_MODE", "release"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("RERA_WEBHOOK_URL"),
			Secret: os.Getenv("RERA_WEBHOOK_SECRET"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Target.ListingURL == "" {
		return fmt.Errorf("config: listing URL is empty")
	}
	if c.Target.Count < 1 {
		return fmt.Errorf("config: target count must be positive, got %d", c.Target.Count)
	}
	if c.Output.CSVPath == "" {
		return fmt.Errorf("config: CSV output path is empty")
	}
	if c.Scraper.MaxStaleRetries < 0 {
		return fmt.Errorf("config: max stale retries must not be negative, got %d", c.Scraper.MaxStaleRetries)
	}
	return nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Missing files are ignored; variables already in the environment win.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
