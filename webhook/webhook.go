package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/rerascrape/models"
)

// EventRunCompleted is sent once per process run, after results are
// persisted.
const EventRunCompleted = "run.completed"

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Rerascrape-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string      `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// RunSummary is the Data of a run.completed event.
type RunSummary struct {
	Status  models.RunStatus `json:"status"`
	Records int              `json:"records"`
	CSV     string           `json:"csv,omitempty"`
	XLSX    string           `json:"xlsx,omitempty"`
}

// NewRunCompleted builds the run.completed event.
func NewRunCompleted(runID string, summary RunSummary) *Event {
	return &Event{
		Type:      EventRunCompleted,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Data:      summary,
	}
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Client delivers events to one endpoint.
type Client struct {
	url    string
	secret string
	http   *http.Client

	// delays are the waits before each attempt.
	delays []time.Duration
}

// NewClient returns a client that retries up to three times, after 1s, 5s
// and 30s.
func NewClient(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		http:   &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Deliver sends a webhook event once.
// The request body is signed with HMAC-SHA256 if the secret is non-empty.
func (c *Client) Deliver(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Rerascrape-Webhook/1.0")

	if c.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(c.secret, body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverWithRetry sends event, retrying failed attempts until the delays
// are used up or ctx ends. The process exits right after, so this blocks.
func (c *Client) DeliverWithRetry(ctx context.Context, event *Event) error {
	var err error
	for attempt, delay := range c.delays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err = c.Deliver(ctx, event); err == nil {
			slog.Info("webhook delivered",
				"url", c.url,
				"event", event.Type,
				"attempt", attempt+1,
			)
			return nil
		}
		slog.Warn("webhook delivery failed",
			"url", c.url,
			"event", event.Type,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries", "url", c.url, "event", event.Type)
	return err
}
