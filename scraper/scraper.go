package scraper

import (
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/rerascrape/config"
	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/models"
)

// Scraper owns the browser process of a run and the single session the
// extraction pipeline works in.
type Scraper struct {
	session *engine.RodSession
}

// NewScraper launches the browser, prepares the listing tab and returns the
// ready session. The caller must Close it.
func NewScraper(cfg config.BrowserConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Fixed-viewport flags ─────────────────────────────────────────
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	l.Set(flags.Flag("start-maximized"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-notifications"))
	// Detail links open in new tabs.
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	session, err := newSession(browser, cfg)
	if err != nil {
		_ = browser.Close()
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to prepare browser tab", err)
	}
	return &Scraper{session: session}, nil
}

// newSession opens the listing tab and applies viewport, stealth, headers
// and resource blocking before anything is navigated.
func newSession(browser *rod.Browser, cfg config.BrowserConfig) (*engine.RodSession, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"Accept-Language": gson.New("en-US,en;q=0.9")},
	}).Call(page); err != nil {
		slog.Warn("could not set request headers", "error", err)
	}

	router := engine.BlockResources(page, cfg.BlockedResourceTypes)
	return engine.NewRodSession(browser, page, router)
}

// Session returns the run's browser session.
func (s *Scraper) Session() engine.Session {
	return s.session
}

// Close kills the browser process. Call it on every exit path to prevent
// zombie Chrome processes.
func (s *Scraper) Close() {
	slog.Info("scraper shutting down: closing browser")
	if err := s.session.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	slog.Info("scraper shutdown complete")
}
