package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sync"

	"github.com/use-agent/rerascrape/engine"
)

// Identity sources, for logging.
const (
	IdentityAttribute   = "attribute"
	IdentityLink        = "link"
	IdentitySynthesized = "synthesized"
)

var linkIDPattern = regexp.MustCompile(`id=(\d+)`)

// IdentityResolver derives an advisory identifier for a listing entry.
// Identities are only ever logged; synthesized ones are not unique.
type IdentityResolver struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewIdentityResolver returns a resolver whose placeholder IDs come from rnd.
// A nil rnd uses a randomly seeded source.
func NewIdentityResolver(rnd *rand.Rand) *IdentityResolver {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &IdentityResolver{rnd: rnd}
}

// Resolve tries the identity attributes on entry, then a numeric id= query
// parameter in the first descendant link, then synthesizes project_NNNN.
func (r *IdentityResolver) Resolve(ctx context.Context, entry engine.Element) (id, source string) {
	for _, attr := range identityAttributes {
		if v, err := entry.Attribute(ctx, attr); err == nil && v != "" {
			return v, IdentityAttribute
		}
	}

	if links, err := entry.Find(ctx, firstAnchor); err == nil && len(links) > 0 {
		if href, err := links[0].Attribute(ctx, "href"); err == nil {
			if m := linkIDPattern.FindStringSubmatch(href); m != nil {
				return m[1], IdentityLink
			}
		}
	}

	return r.synthesize(), IdentitySynthesized
}

func (r *IdentityResolver) synthesize() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("project_%d", 1000+r.rnd.Intn(9000))
}
