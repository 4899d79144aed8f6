package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/rerascrape/engine"
)

// Extract runs the cascade in set against scope. Each locator gets up to
// timeout to appear; the first one whose trimmed text is non-empty wins and
// no later locator is tried. When every locator misses or yields empty text
// Extract returns def. It never fails: lookup and read errors of any kind
// only move on to the next locator.
func Extract(ctx context.Context, scope engine.Scope, set FieldLocatorSet, timeout time.Duration, def string) string {
	for i, loc := range set.Locators {
		if ctx.Err() != nil {
			break
		}
		el, err := scope.Wait(ctx, loc, timeout)
		if err != nil {
			slog.Debug("field locator missed", "field", set.Field, "variant", i, "locator", loc.String(), "error", err)
			continue
		}
		text, err := el.Text(ctx)
		if err != nil {
			slog.Debug("field text unreadable", "field", set.Field, "variant", i, "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			if i > 0 {
				slog.Debug("field matched fallback locator", "field", set.Field, "variant", i, "locator", loc.String())
			}
			return text
		}
	}
	return def
}
