package scraper

import (
	"fmt"
	"strings"
	"testing"
)

func listingHTML(cards int, cardClass string) string {
	var b strings.Builder
	b.WriteString(`<html><head><script>var x = "<div class='noise'>";</script></head><body><div class="container"><div class="row">`)
	for i := 0; i < cards; i++ {
		fmt.Fprintf(&b, `<div class="col-lg-4"><div class="%s"><div class="card-body"><h5 class="card-title">Project %d</h5><small>by Promoter %d</small><span class="fw-bold">RP/%d</span></div></div></div>`, cardClass, i, i, i)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

func TestLayoutSignature_IgnoresData(t *testing.T) {
	a := LayoutSignature(listingHTML(12, "card project-card"))
	b := LayoutSignature(strings.ReplaceAll(listingHTML(12, "card project-card"), "Project", "Scheme"))

	if a != b {
		t.Errorf("text-only change moved the signature: %064b vs %064b", a, b)
	}
	if LayoutDrifted(a, b) {
		t.Error("text-only change reported as drift")
	}
}

func TestLayoutSignature_SimilarListings(t *testing.T) {
	a := LayoutSignature(listingHTML(12, "card project-card"))
	b := LayoutSignature(listingHTML(11, "card project-card"))

	if d := LayoutDistance(a, b); d > driftThreshold {
		t.Errorf("one card fewer gave distance %d", d)
	}
}

func TestLayoutSignature_TemplateChange(t *testing.T) {
	a := LayoutSignature(listingHTML(12, "card project-card"))
	b := LayoutSignature(`<html><body><table class="projects"><tr><td class="name">x</td><td class="id">y</td></tr></table><ul class="pager"><li><a>1</a></li></ul></body></html>`)

	if !LayoutDrifted(a, b) {
		t.Errorf("template change not detected, distance %d", LayoutDistance(a, b))
	}
}

func TestLayoutDrifted_ZeroBaseline(t *testing.T) {
	if LayoutDrifted(0, LayoutSignature(listingHTML(3, "card"))) {
		t.Error("zero baseline must never drift")
	}
	if LayoutSignature("") != 0 {
		t.Error("empty document should have a zero signature")
	}
}
