package scraper

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/use-agent/rerascrape/config"
	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/models"
)

// Assembler turns one listing entry into one ProjectRecord.
type Assembler struct {
	navigator *Navigator
	identity  *IdentityResolver
	cfg       config.ScraperConfig
}

// NewAssembler wires an Assembler.
func NewAssembler(navigator *Navigator, identity *IdentityResolver, cfg config.ScraperConfig) *Assembler {
	return &Assembler{navigator: navigator, identity: identity, cfg: cfg}
}

// Assemble produces the record for entry. A nil record with a nil error means
// the candidate has no usable data and should be skipped. A returned error
// means the candidate failed; listingStale tells the caller a listing
// reload may help. Tabs opened along the way are always released.
func (a *Assembler) Assemble(ctx context.Context, entry engine.Element, seq int) (*models.ProjectRecord, error) {
	id, source := a.identity.Resolve(ctx, entry)
	slog.Info("processing project", "seq", seq, "project_id", id, "identity", source)

	nav, err := a.navigator.Navigate(ctx, entry)
	defer nav.Release(ctx)
	if err != nil {
		if nav.Card != nil && !listingStale(err) && ctx.Err() == nil {
			slog.Warn("detail view unreachable, using card data", "seq", seq, "error", err)
			return nav.Card, nil
		}
		return nil, err
	}

	if nav.Detail == nil {
		if nav.Card == nil {
			slog.Info("no detail view and no card data", "seq", seq)
			return nil, nil
		}
		return nav.Card, nil
	}
	return a.readDetail(ctx, nav.Detail, nav.Card)
}

// readDetail extracts the five fields from an open detail view. Unexpected
// failures once the view is open downgrade the promoter fields to
// models.ErrorOccurred instead of dropping the candidate.
func (a *Assembler) readDetail(ctx context.Context, page engine.Page, card *models.ProjectRecord) (rec *models.ProjectRecord, err error) {
	regID := Extract(ctx, page, detailRegulatoryID, a.cfg.DetailFieldTimeout, models.NotFound)
	name := Extract(ctx, page, detailProjectName, a.cfg.DetailFieldTimeout, models.NotFound)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if regID == models.NotFound && name == models.NotFound && card != nil {
		slog.Warn("detail view has no project fields, using card data")
		return card, nil
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("promoter extraction panicked", "panic", r, "stack", string(debug.Stack()))
			fallback := models.PromoterFallback(regID, name, models.ErrorOccurred)
			rec, err = &fallback, nil
		}
	}()

	tab, err := a.findPromoterTab(ctx, page)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("promoter details tab lookup failed", "regulatory_id", regID, "error", err)
		fallback := models.PromoterFallback(regID, name, models.ErrorOccurred)
		return &fallback, nil
	}
	if tab == nil {
		slog.Warn("promoter details tab not found", "regulatory_id", regID)
		fallback := models.PromoterFallback(regID, name, models.TabNotFound)
		return &fallback, nil
	}

	if err := tab.ScriptClick(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("could not open promoter details tab", "regulatory_id", regID, "error", err)
		fallback := models.PromoterFallback(regID, name, models.ErrorOccurred)
		return &fallback, nil
	}
	slog.Info("promoter details tab opened")
	a.awaitPromoterPanel(ctx, page)

	return &models.ProjectRecord{
		RegulatoryID:    regID,
		ProjectName:     name,
		PromoterName:    Extract(ctx, page, promoterName, a.cfg.FieldTimeout, models.NotFound),
		PromoterAddress: Extract(ctx, page, promoterAddress, a.cfg.FieldTimeout, models.NotFound),
		TaxID:           Extract(ctx, page, promoterTaxID, a.cfg.FieldTimeout, models.NotFound),
	}, nil
}

// findPromoterTab returns the first clickable tab variant, each given its own
// TabTimeout, or nil if none became clickable. Any failure other than a
// variant not being found is returned.
func (a *Assembler) findPromoterTab(ctx context.Context, page engine.Page) (engine.Element, error) {
	for i, loc := range promoterTabs {
		tab, err := page.WaitClickable(ctx, loc, a.cfg.TabTimeout)
		if err == nil {
			return tab, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !engine.IsNotFound(err) {
			return nil, err
		}
		slog.Debug("promoter tab variant not clickable", "variant", i, "error", err)
	}
	return nil, nil
}

// awaitPromoterPanel waits for the tab switch to render any promoter field.
func (a *Assembler) awaitPromoterPanel(ctx context.Context, page engine.Page) {
	if err := page.WaitStable(ctx, a.cfg.SettleDelay); err != nil {
		slog.Debug("detail view did not settle after tab click", "error", err)
	}

	var locs []engine.Locator
	for _, set := range []FieldLocatorSet{promoterName, promoterAddress, promoterTaxID} {
		locs = append(locs, set.Locators...)
	}
	_, err := engine.Poll(ctx, locs[0], a.cfg.TabTimeout, func(ctx context.Context) ([]engine.Element, error) {
		for _, loc := range locs {
			els, err := page.Find(ctx, loc)
			if err != nil {
				return nil, err
			}
			if len(els) > 0 {
				return els, nil
			}
		}
		return nil, nil
	}, nil)
	if err != nil {
		slog.Debug("promoter panel not detected", "error", err)
	}
}
