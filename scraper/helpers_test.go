package scraper

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/use-agent/rerascrape/cache"
	"github.com/use-agent/rerascrape/config"
	"github.com/use-agent/rerascrape/engine"
	"github.com/use-agent/rerascrape/engine/enginetest"
)

const testListingURL = "https://rera.example/projects/project-list"

// testScraperConfig has every wait at zero, so each lookup is one attempt.
func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{MaxStaleRetries: 3}
}

func cardHTML(regID, name, promoter, address, gst string) string {
	h := `<div class="card project-card"><div class="card-body">`
	if name != "" {
		h += fmt.Sprintf(`<h5 class="card-title">%s</h5>`, name)
	}
	if promoter != "" {
		h += fmt.Sprintf(`<small>by %s</small>`, promoter)
	}
	if regID != "" {
		h += fmt.Sprintf(`<span class="fw-bold">%s</span>`, regID)
	}
	if address != "" {
		h += fmt.Sprintf(`<div><label>Address</label><strong>%s</strong></div>`, address)
	}
	if gst != "" {
		h += fmt.Sprintf(`<div><label>GST No</label><strong>%s</strong></div>`, gst)
	}
	return h + `</div></div>`
}

// newCard returns a listing card with every field and no details control.
func newCard(n int) *enginetest.Element {
	regID := fmt.Sprintf("RP/01/2024/%05d", n)
	return enginetest.NewElement(fmt.Sprintf("Project %d", n)).
		WithAttr("data-id", fmt.Sprint(n)).
		WithHTML(cardHTML(regID, fmt.Sprintf("Project %d", n), fmt.Sprintf("Promoter %d", n),
			fmt.Sprintf("%d Main Road, Bhubaneswar", n), fmt.Sprintf("21AAAAA%04dA1Z5", n)))
}

func regIDOf(n int) string { return fmt.Sprintf("RP/01/2024/%05d", n) }

func newCards(from, to int) []*enginetest.Element {
	var out []*enginetest.Element
	for i := from; i <= to; i++ {
		out = append(out, newCard(i))
	}
	return out
}

// newDetailPage returns a rendered detail tab with the given th/td pairs.
func newDetailPage(id string, cells map[string]string, tab engine.Locator, withTab bool) *enginetest.Page {
	p := enginetest.NewPage(id).Set(detailRoot, enginetest.NewElement(""))
	for label, v := range cells {
		p.Set(thCell(label), enginetest.NewElement(v))
	}
	if withTab {
		p.Set(tab, enginetest.NewElement("Promoter Details"))
	}
	return p
}

func newTestCollector(t *testing.T, session engine.Session, target int) (*Collector, *cache.Ledger) {
	t.Helper()
	ledger := cache.NewLedger()
	c := NewCollector(session, ledger, CollectorOptions{
		RunID:   "test-run",
		Target:  config.TargetConfig{ListingURL: testListingURL, Count: target},
		Scraper: testScraperConfig(),
		Rand:    rand.New(rand.NewSource(1)),
	})
	return c, ledger
}
