package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/rerascrape/engine"
)

// PopupDismisser closes the SweetAlert confirmation dialog the site shows on
// load. Dismissal is best effort; every failure is logged and swallowed.
type PopupDismisser struct {
	settle time.Duration
}

// NewPopupDismisser returns a dismisser that waits up to settle for the page
// to calm down after clicking.
func NewPopupDismisser(settle time.Duration) *PopupDismisser {
	return &PopupDismisser{settle: settle}
}

// Dismiss waits up to timeout for the confirm button and clicks it. Returns
// true if it clicked.
func (d *PopupDismisser) Dismiss(ctx context.Context, page engine.Page, timeout time.Duration) bool {
	btn, err := page.WaitClickable(ctx, popupConfirm, timeout)
	if err != nil {
		slog.Debug("no popup found", "error", err)
		return false
	}

	if err := btn.Click(ctx); err != nil {
		// The dialog animates in; a covered button still takes a script click.
		if err := btn.ScriptClick(ctx); err != nil {
			slog.Warn("could not close popup", "error", err)
			return false
		}
	}
	slog.Info("popup dismissed")

	if err := page.WaitStable(ctx, d.settle); err != nil {
		slog.Debug("page did not settle after popup", "error", err)
	}
	return true
}
