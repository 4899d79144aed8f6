package engine

import (
	"context"
	"fmt"
	"time"
)

// pollInterval is how often Wait re-queries the DOM.
const pollInterval = 250 * time.Millisecond

// FindFunc queries a scope once.
type FindFunc func(ctx context.Context) ([]Element, error)

// ReadyFunc reports whether a matched element satisfies the wait condition.
type ReadyFunc func(ctx context.Context, el Element) bool

// Poll re-runs find until it yields an element accepted by ready, the
// timeout elapses (ErrNotFound) or find fails with a non-miss error. A nil
// ready accepts the first match. Scopes without a live DOM can call it with
// a zero timeout to get exactly one attempt.
func Poll(ctx context.Context, loc Locator, timeout time.Duration, find FindFunc, ready ReadyFunc) (Element, error) {
	deadline := time.Now().Add(timeout)
	for {
		els, err := find(ctx)
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
		for _, el := range els {
			if ready == nil || ready(ctx, el) {
				return el, nil
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: %s within %s", ErrNotFound, loc, timeout)
		}
		wait := pollInterval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
