package engine

import "testing"

func TestIsTrackerHost(t *testing.T) {
	tests := map[string]bool{
		"www.google-analytics.com": true,
		"GoogleTagManager.com":     true,
		"static.hotjar.com":        true,
		"rera.odisha.gov.in":       false,
		"analytics.com":            false,
		"":                         false,
	}
	for host, want := range tests {
		if got := isTrackerHost(host); got != want {
			t.Errorf("isTrackerHost(%q) = %v, want %v", host, got, want)
		}
	}
}
