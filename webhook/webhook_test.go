package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/rerascrape/models"
)

func newTestClient(url, secret string) *Client {
	c := NewClient(url, secret)
	c.delays = []time.Duration{0, time.Millisecond, time.Millisecond}
	return c
}

func TestDeliver_Signed(t *testing.T) {
	var gotSig string
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		assert.Equal(t, "sha256="+Sign("s3cret", body), gotSig)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	event := NewRunCompleted("run-1", RunSummary{
		Status:  models.RunStatus{RunID: "run-1", Target: 6, Succeeded: 6},
		Records: 6,
		CSV:     "output.csv",
	})
	require.NoError(t, newTestClient(srv.URL, "s3cret").Deliver(context.Background(), event))

	assert.NotEmpty(t, gotSig)
	assert.Equal(t, EventRunCompleted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
}

func TestDeliver_Unsigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL, "").Deliver(context.Background(), NewRunCompleted("r", RunSummary{})))
}

func TestDeliverWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, "").DeliverWithRetry(context.Background(), NewRunCompleted("r", RunSummary{}))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, "").DeliverWithRetry(context.Background(), NewRunCompleted("r", RunSummary{}))
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliverWithRetry_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.DeliverWithRetry(ctx, NewRunCompleted("r", RunSummary{}))
	assert.ErrorIs(t, err, context.Canceled)
}
