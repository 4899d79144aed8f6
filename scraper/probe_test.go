package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spaShell = `<html><head><title> Project List | RERA </title></head><body><div id="root"></div><script src="/main.js"></script></body></html>`

func TestProbe_ReportsShell(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chromeUA, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(spaShell))
	}))
	defer srv.Close()

	report, err := Probe(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, report.StatusCode)
	assert.Equal(t, "Project List | RERA", report.Title)
	assert.Equal(t, len(spaShell), report.Bytes)
	assert.True(t, report.NeedsBrowser)
}

func TestProbe_ErrorStatusIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	report, err := Probe(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, report.StatusCode)
}

func TestProbe_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := Probe(context.Background(), url, "")
	assert.Error(t, err)
}

func TestNeedsBrowser(t *testing.T) {
	long := strings.Repeat("Registered real estate project in Bhubaneswar. ", 20)
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"spa shell", spaShell, true},
		{"server rendered", "<html><body><main>" + long + "</main></body></html>", false},
		{"noscript warning", "<html><body><noscript>This site requires JavaScript</noscript><p>" + long + "</p></body></html>", true},
		{"empty app root", `<html><body><div id="app"> </div><p>` + long + `</p></body></html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsBrowser([]byte(tt.body)))
		})
	}
}
