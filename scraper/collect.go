package scraper

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/use-agent/rerascrape/cache"
	"github.com/use-agent/rerascrape/config"
	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/models"
)

// Run phases reported in models.RunStatus.
const (
	PhaseStarting    = "starting"
	PhaseDiscovering = "discovering"
	PhaseCollecting  = "collecting"
	PhaseWidening    = "widening"
	PhaseDone        = "done"
)

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	RunID   string
	Target  config.TargetConfig
	Scraper config.ScraperConfig

	// Rand feeds placeholder identities; nil uses a random seed.
	Rand *rand.Rand
}

// Collector drives a run: it discovers candidates on the listing, assembles
// them one at a time until the target is reached, reloads the listing when
// an entry goes stale, and widens the candidate set once if the first pass
// falls short. It is not safe for concurrent Runs, but Status and Records
// may be called from other goroutines while Run is in progress.
type Collector struct {
	session   engine.Session
	ledger    *cache.Ledger
	assembler *Assembler
	identity  *IdentityResolver
	popups    *PopupDismisser
	limiter   *rate.Limiter

	runID  string
	target config.TargetConfig
	cfg    config.ScraperConfig

	baseline uint64

	mu       sync.Mutex
	phase    string
	strategy string
	runErr   *models.ErrorDetail

	candidates atomic.Int32
	processed  atomic.Int32
	skipped    atomic.Int32
	reloads    atomic.Int32
}

// NewCollector wires the extraction pipeline over session. Accepted records
// go to ledger.
func NewCollector(session engine.Session, ledger *cache.Ledger, opts CollectorOptions) *Collector {
	identity := NewIdentityResolver(opts.Rand)
	popups := NewPopupDismisser(opts.Scraper.SettleDelay)
	navigator := NewNavigator(session, popups, opts.Scraper)

	return &Collector{
		session:   session,
		ledger:    ledger,
		assembler: NewAssembler(navigator, identity, opts.Scraper),
		identity:  identity,
		popups:    popups,
		limiter:   rate.NewLimiter(rate.Every(opts.Scraper.CandidateDelay), 1),
		runID:     opts.RunID,
		target:    opts.Target,
		cfg:       opts.Scraper,
		phase:     PhaseStarting,
	}
}

// Run executes the collection. The returned result is never nil and always
// carries the records accepted so far, also when err is non-nil.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Load listing   – navigate, settle, dismiss popup, record layout baseline
//  2. Discover       – first listing strategy with any matches wins
//  3. Drain          – assemble candidates in order until the target is met
//  4. Widen          – once, only when the target is still unmet
func (c *Collector) Run(ctx context.Context) (res *RunResult, err error) {
	defer func() {
		res = c.result()
		c.finish(err)
	}()

	// ── 1. Load listing ──────────────────────────────────────────────
	page := c.session.Current()
	if err := c.loadListing(ctx, page); err != nil {
		return nil, err
	}
	if html, err := page.HTML(ctx); err == nil {
		c.baseline = LayoutSignature(html)
	}

	// ── 2. Discover ──────────────────────────────────────────────────
	c.setPhase(PhaseDiscovering)
	cands, err := discover(ctx, page, listingStrategies, c.cfg.ListingTimeout, c.ledger, c.identity)
	if err != nil {
		return nil, categorizeError(err, "candidate discovery failed")
	}
	if len(cands) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeNoCandidates, "could not find any projects on the page", nil)
	}
	c.mu.Lock()
	c.strategy = cands[0].Strategy.String()
	c.mu.Unlock()
	c.candidates.Add(int32(len(cands)))
	slog.Info("found projects, starting extraction", "candidates", len(cands), "target", c.target.Count)

	// ── 3. Drain ─────────────────────────────────────────────────────
	c.setPhase(PhaseCollecting)
	if err := c.drain(ctx, cands); err != nil {
		return nil, err
	}

	// ── 4. Widen ─────────────────────────────────────────────────────
	if c.ledger.Len() >= c.target.Count {
		return nil, nil
	}
	c.setPhase(PhaseWidening)
	slog.Info("target not reached, looking for more projects",
		"succeeded", c.ledger.Len(), "target", c.target.Count)
	extra, err := widen(ctx, c.session.Current(), listingStrategies, c.cfg.WideningTimeout, c.ledger, c.identity)
	if err != nil {
		return nil, categorizeError(err, "widening scan failed")
	}
	c.candidates.Add(int32(len(extra)))
	slog.Info("widening scan finished", "new_candidates", len(extra))
	if err := c.drain(ctx, extra); err != nil {
		return nil, err
	}
	return nil, nil
}

// drain processes cands in order. A stale candidate triggers a listing
// reload and a retry of the same slot, up to MaxStaleRetries times. Every
// other failure skips the candidate. Only context errors end the drain.
func (c *Collector) drain(ctx context.Context, cands []CandidateDescriptor) error {
	retries := 0
	for i := 0; i < len(cands) && c.ledger.Len() < c.target.Count; {
		if err := c.limiter.Wait(ctx); err != nil {
			return categorizeError(err, "collection interrupted")
		}

		cand := cands[i]
		seq := int(c.processed.Load()) + 1
		rec, err := c.process(ctx, cand, seq)

		if err != nil && listingStale(err) && ctx.Err() == nil {
			if retries < c.cfg.MaxStaleRetries {
				retries++
				slog.Warn("stale element, reloading listing",
					"seq", seq, "strategy", cand.Strategy.String(), "index", cand.Index, "attempt", retries)
				c.reload(ctx)
				continue
			}
			slog.Warn("candidate still stale after reloads, skipping", "seq", seq, "reloads", retries)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return categorizeError(ctxErr, "collection interrupted")
		}

		retries = 0
		i++
		c.processed.Add(1)

		switch {
		case err != nil:
			c.skipped.Add(1)
			slog.Warn("candidate failed, moving to next", "seq", seq, "project_id", cand.Identity, "error", err)
		case rec == nil:
			c.skipped.Add(1)
			slog.Info("candidate yielded no data, moving to next", "seq", seq, "project_id", cand.Identity)
		case !c.ledger.Add(*rec):
			c.skipped.Add(1)
			slog.Info("duplicate project, not counted", "seq", seq, "regulatory_id", rec.RegulatoryID)
		default:
			slog.Info("project scraped", "seq", seq, "regulatory_id", rec.RegulatoryID,
				"succeeded", c.ledger.Len(), "target", c.target.Count)
		}
	}
	return nil
}

// process re-queries the candidate's slot on the current listing and
// assembles it.
func (c *Collector) process(ctx context.Context, cand CandidateDescriptor, seq int) (*models.ProjectRecord, error) {
	page := c.session.Current()
	if _, err := page.Wait(ctx, cand.Strategy, c.cfg.ListingTimeout); err != nil {
		return nil, err
	}
	els, err := page.Find(ctx, cand.Strategy)
	if err != nil {
		return nil, err
	}
	if cand.Index >= len(els) {
		return nil, errors.New("candidate index no longer present on listing")
	}
	return c.assembler.Assemble(ctx, els[cand.Index], seq)
}

// reload re-opens the listing after a stale element. Failures are logged;
// the retried candidate will surface them.
func (c *Collector) reload(ctx context.Context) {
	c.reloads.Add(1)
	page := c.session.Current()
	if err := c.loadListing(ctx, page); err != nil {
		slog.Warn("listing reload failed", "error", err)
		return
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return
	}
	if sig := LayoutSignature(html); LayoutDrifted(c.baseline, sig) {
		slog.Warn("listing layout changed since first load",
			"distance", LayoutDistance(c.baseline, sig))
	}
}

// loadListing navigates page to the listing, lets it settle and dismisses
// the load popup.
func (c *Collector) loadListing(ctx context.Context, page engine.Page) error {
	navCtx := ctx
	if c.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, c.cfg.NavigationTimeout)
		defer cancel()
	}

	slog.Info("loading listing page", "url", c.target.ListingURL)
	if err := page.Navigate(navCtx, c.target.ListingURL); err != nil {
		return categorizeError(err, "failed to load listing page")
	}
	if err := page.WaitStable(ctx, c.cfg.SettleDelay); err != nil {
		slog.Debug("listing did not settle", "error", err)
	}
	c.popups.Dismiss(ctx, page, c.cfg.PopupTimeout)
	return nil
}

// categorizeError maps an error onto a ScrapeError code. Errors that already
// carry a code keep it.
func categorizeError(err error, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "run canceled", err)
	case engine.IsStale(err):
		return models.NewScrapeError(models.ErrCodeStale, msg, err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}

func (c *Collector) setPhase(phase string) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()
}

func (c *Collector) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseDone
	if err == nil {
		return
	}
	var se *models.ScrapeError
	if errors.As(err, &se) {
		c.runErr = se.ToDetail()
	} else {
		c.runErr = &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
	}
}

func (c *Collector) result() *RunResult {
	c.mu.Lock()
	strategy := c.strategy
	c.mu.Unlock()
	return &RunResult{
		Records:    c.ledger.Records(),
		Strategy:   strategy,
		Candidates: int(c.candidates.Load()),
		Processed:  int(c.processed.Load()),
		Succeeded:  c.ledger.Len(),
		Skipped:    int(c.skipped.Load()),
		Reloads:    int(c.reloads.Load()),
	}
}

// Status returns a snapshot of the run's progress.
func (c *Collector) Status() models.RunStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.RunStatus{
		RunID:      c.runID,
		Phase:      c.phase,
		Strategy:   c.strategy,
		Target:     c.target.Count,
		Candidates: int(c.candidates.Load()),
		Processed:  int(c.processed.Load()),
		Succeeded:  c.ledger.Len(),
		Skipped:    int(c.skipped.Load()),
		Reloads:    int(c.reloads.Load()),
		Error:      c.runErr,
	}
}

// Records returns the records accepted so far.
func (c *Collector) Records() []models.ProjectRecord {
	return c.ledger.Records()
}

