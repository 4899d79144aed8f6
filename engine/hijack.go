package engine

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to Rod protocol resource types.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// trackerHosts are analytics hosts the listing page loads but never needs.
var trackerHosts = map[string]struct{}{
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"facebook.net":          {},
	"hotjar.com":            {},
}

// isTrackerHost checks host and each of its parent domains.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			return false
		}
		host = host[idx+1:]
	}
	return false
}

// BlockResources installs a request interceptor on page that fails requests
// for the named resource types and for known tracker hosts. Unknown type
// names are logged and ignored. The returned router is already running; stop
// it when the page is done. Returns nil when nothing is configured.
func BlockResources(page *rod.Page, typeNames []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(typeNames))
	for _, name := range typeNames {
		rt, ok := resourceTypes[name]
		if !ok {
			slog.Warn("engine: unknown resource type, not blocking", "type", name)
			continue
		}
		blocked[rt] = struct{}{}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, ok := blocked[h.Request.Type()]; ok {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if u, err := url.Parse(h.Request.URL().String()); err == nil && isTrackerHost(u.Hostname()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
