package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/rerascrape/config"
	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/models"
)

const (
	tabPollInterval = 100 * time.Millisecond
	releaseTimeout  = 15 * time.Second
)

// embeddedIDScript reads the project ID a script-driven details link carries.
const embeddedIDScript = `() => this.getAttribute('data-project-id') ||
	this.getAttribute('data-id') ||
	(this.parentNode && this.parentNode.getAttribute ? this.parentNode.getAttribute('data-project-id') : '') ||
	''`

// Navigator opens a listing entry's detail view. It is the only component
// that opens, switches or closes tabs.
type Navigator struct {
	session engine.Session
	popups  *PopupDismisser
	cfg     config.ScraperConfig
}

// NewNavigator returns a Navigator over session.
func NewNavigator(session engine.Session, popups *PopupDismisser, cfg config.ScraperConfig) *Navigator {
	return &Navigator{session: session, popups: popups, cfg: cfg}
}

// Navigation is the outcome of Navigate. Release must run on every path,
// including when Navigate returned an error.
type Navigation struct {
	// Detail is the rendered detail view, or nil when none was reached.
	Detail engine.Page

	// Card holds whatever could be read from the listing card itself. It is
	// set when the entry has no details control, and for script-driven
	// links where the card is read before clicking.
	Card *models.ProjectRecord

	// InPlace is true when the details control replaced the listing in the
	// current tab instead of opening a new one.
	InPlace bool

	nav    *Navigator
	origin engine.Page
	opened engine.Page
	before map[string]struct{}
}

// Navigate finds entry's "view details" control and follows it.
//
// Steps (numbered to match the inline comments):
//
//  1. Record open tabs  – the set Release restores
//  2. Find control      – first non-empty match of the control cascade
//  3. Trigger           – script click for javascript: links, native click otherwise
//  4. Locate context    – a new tab if one appeared, else the current tab
//  5. Wait for root     – detail body present, popup dismissed
//
// Stale entry or control errors are returned unchanged so the caller can
// reload. Once the control has been triggered every failure is a
// navigation error, stale or not.
func (n *Navigator) Navigate(ctx context.Context, entry engine.Element) (*Navigation, error) {
	nv := &Navigation{
		nav:    n,
		origin: n.session.Current(),
		before: make(map[string]struct{}),
	}

	// ── 1. Record open tabs ──────────────────────────────────────────
	pages, err := n.session.Pages(ctx)
	if err != nil {
		return nv, navigationError("list tabs", err)
	}
	for _, p := range pages {
		nv.before[p.ID()] = struct{}{}
	}

	// ── 2. Find control ──────────────────────────────────────────────
	control, err := findControl(ctx, entry)
	if err != nil {
		return nv, err
	}
	if control == nil {
		slog.Info("no view details control, reading card directly")
		nv.Card, err = ReadCard(ctx, entry)
		return nv, err
	}

	href, err := control.Attribute(ctx, "href")
	if err != nil {
		return nv, fmt.Errorf("read details href: %w", err)
	}
	originURL, originErr := nv.origin.URL(ctx)

	// ── 3. Trigger ───────────────────────────────────────────────────
	if isScriptLink(href) {
		if id, err := control.Eval(ctx, embeddedIDScript); err == nil && id != "" {
			slog.Info("project id embedded in script link", "project_id", id)
		}
		if nv.Card, err = ReadCard(ctx, entry); err != nil {
			return nv, err
		}
		// A native click on these controls does not leave the listing.
		if err := control.ScriptClick(ctx); err != nil {
			if nv.Card != nil && !engine.IsStale(err) {
				slog.Warn("script click failed, keeping card data", "error", err)
				return nv, nil
			}
			return nv, navigationError("script click on details link", err)
		}
	} else if err := n.click(ctx, control); err != nil {
		return nv, err
	}

	// ── 4. Locate context ────────────────────────────────────────────
	detail, err := n.awaitNewTab(ctx, nv.before)
	if err != nil {
		return nv, models.NewScrapeError(models.ErrCodeNavigation, "wait for detail tab", err)
	}
	if detail != nil {
		nv.opened = detail
		if err := n.session.SwitchTo(ctx, detail); err != nil {
			return nv, models.NewScrapeError(models.ErrCodeNavigation, "switch to detail tab", err)
		}
		slog.Info("detail view opened in new tab")
	} else {
		detail = nv.origin
		if u, err := detail.URL(ctx); originErr == nil && err == nil && u != originURL {
			nv.InPlace = true
		}
		if err := detail.WaitStable(ctx, n.cfg.SettleDelay); err != nil {
			slog.Debug("detail view did not settle", "error", err)
		}
		slog.Info("detail view opened in current tab", "navigated", nv.InPlace)
	}

	// ── 5. Wait for root ─────────────────────────────────────────────
	if _, err := detail.Wait(ctx, detailRoot, n.cfg.DetailRootTimeout); err != nil {
		return nv, models.NewScrapeError(models.ErrCodeNavigation, "detail view did not render", err)
	}
	n.popups.Dismiss(ctx, detail, n.cfg.DetailPopupTimeout)

	nv.Detail = detail
	return nv, nil
}

// Release closes every tab opened since Navigate started, undoes an in-place
// navigation and makes the original tab current again. It runs on a fresh
// deadline so a cancelled caller still gets its tabs cleaned up.
func (nv *Navigation) Release(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	n := nv.nav

	if nv.InPlace {
		if err := nv.origin.Back(ctx); err != nil {
			slog.Warn("could not return to listing", "error", err)
		} else if err := nv.origin.WaitStable(ctx, n.cfg.SettleDelay); err != nil {
			slog.Debug("listing did not settle after back", "error", err)
		}
	}

	pages, err := n.session.Pages(ctx)
	if err != nil {
		slog.Debug("could not list tabs for cleanup, retrying", "error", err)
		pages, err = n.session.Pages(ctx)
	}
	if err != nil {
		slog.Warn("could not list tabs for cleanup", "error", err)
		if nv.opened != nil && nv.opened.ID() != nv.origin.ID() {
			pages = []engine.Page{nv.opened}
		}
	}
	for _, p := range pages {
		if _, ok := nv.before[p.ID()]; ok || p.ID() == nv.origin.ID() {
			continue
		}
		if err := p.Close(ctx); err != nil {
			slog.Warn("could not close detail tab", "tab", p.ID(), "error", err)
		}
	}

	if n.session.Current().ID() != nv.origin.ID() {
		if err := n.session.SwitchTo(ctx, nv.origin); err != nil {
			slog.Warn("could not switch back to listing tab", "error", err)
		}
	}
}

// findControl returns the first element of the first control locator that
// matches inside entry, or nil.
func findControl(ctx context.Context, entry engine.Element) (engine.Element, error) {
	for _, loc := range viewDetailsControls {
		els, err := entry.Find(ctx, loc)
		if err != nil {
			if engine.IsStale(err) || ctx.Err() != nil {
				return nil, err
			}
			continue
		}
		if len(els) > 0 {
			return els[0], nil
		}
	}
	return nil, nil
}

func isScriptLink(href string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "javascript:")
}

// click tries a native click and falls back to a script click when the
// control is covered or otherwise refuses pointer events.
func (n *Navigator) click(ctx context.Context, control engine.Element) error {
	err := control.Click(ctx)
	if err == nil {
		return nil
	}
	if engine.IsStale(err) {
		return err
	}
	slog.Debug("native click failed, retrying from script", "error", err)
	if err := control.ScriptClick(ctx); err != nil {
		return navigationError("click details link", err)
	}
	return nil
}

// awaitNewTab polls for a tab not in before for up to NewTabTimeout. It
// returns nil when none appeared.
func (n *Navigator) awaitNewTab(ctx context.Context, before map[string]struct{}) (engine.Page, error) {
	deadline := time.Now().Add(n.cfg.NewTabTimeout)
	for {
		pages, err := n.session.Pages(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			if _, ok := before[p.ID()]; !ok {
				return p, nil
			}
		}
		if !time.Now().Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(tabPollInterval):
		}
	}
}

// listingStale reports whether err is a stale listing entry or control that
// a reload may fix. Errors already carrying a code never qualify.
func listingStale(err error) bool {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return false
	}
	return engine.IsStale(err)
}

func navigationError(msg string, err error) error {
	if engine.IsStale(err) {
		return err
	}
	return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
}
