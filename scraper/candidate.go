package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/rerascrape/cache"
	"github.com/use-agent/rerascrape/engine"
)

// CandidateDescriptor names one listing entry by the strategy that found it
// and its position in that strategy's result. Page state is always re-queried
// through these two; Identity is advisory and only logged.
type CandidateDescriptor struct {
	Strategy engine.Locator
	Index    int
	Identity string
}

// Key is the candidate's ledger key.
func (c CandidateDescriptor) Key() string {
	return cache.Key(c.Strategy.String(), c.Index)
}

// discover returns the candidates of the first listing strategy that yields
// any elements. Every returned candidate is marked seen in ledger.
func discover(ctx context.Context, page engine.Page, strategies []engine.Locator, timeout time.Duration,
	ledger *cache.Ledger, identity *IdentityResolver) ([]CandidateDescriptor, error) {
	for i, loc := range strategies {
		els, err := listing(ctx, page, loc, timeout)
		if err != nil {
			return nil, err
		}
		if len(els) == 0 {
			slog.Info("listing strategy found nothing", "variant", i, "locator", loc.String())
			continue
		}

		cands := describe(ctx, loc, els, ledger, identity)
		slog.Info("listing strategy matched", "variant", i, "locator", loc.String(), "candidates", len(cands))
		return cands, nil
	}
	return nil, nil
}

// widen re-scans the listing with every strategy and returns only the
// candidates whose (strategy, index) the ledger has not seen.
func widen(ctx context.Context, page engine.Page, strategies []engine.Locator, timeout time.Duration,
	ledger *cache.Ledger, identity *IdentityResolver) ([]CandidateDescriptor, error) {
	var out []CandidateDescriptor
	for _, loc := range strategies {
		els, err := listing(ctx, page, loc, timeout)
		if err != nil {
			return out, err
		}
		out = append(out, describe(ctx, loc, els, ledger, identity)...)
	}
	return out, nil
}

// listing waits for loc and returns all of its current matches. Misses and
// transient lookup errors yield an empty result; only a finished context is
// an error.
func listing(ctx context.Context, page engine.Page, loc engine.Locator, timeout time.Duration) ([]engine.Element, error) {
	if _, err := page.Wait(ctx, loc, timeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !engine.IsNotFound(err) {
			slog.Warn("listing lookup failed", "locator", loc.String(), "error", err)
		}
		return nil, nil
	}
	els, err := page.Find(ctx, loc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("listing lookup failed", "locator", loc.String(), "error", err)
		return nil, nil
	}
	return els, nil
}

func describe(ctx context.Context, loc engine.Locator, els []engine.Element, ledger *cache.Ledger, identity *IdentityResolver) []CandidateDescriptor {
	var out []CandidateDescriptor
	for idx, el := range els {
		c := CandidateDescriptor{Strategy: loc, Index: idx}
		if !ledger.MarkSeen(c.Key()) {
			continue
		}
		c.Identity, _ = identity.Resolve(ctx, el)
		out = append(out, c)
	}
	return out
}
