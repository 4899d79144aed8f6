package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
)

var (
	// ErrNotFound means no element matched within the wait budget.
	ErrNotFound = errors.New("engine: element not found")

	// ErrStale means the element handle no longer refers to a live node.
	ErrStale = errors.New("engine: stale element reference")

	// ErrUnsupported means the scope cannot evaluate the requested operation
	// or locator kind (e.g. XPath against a static snapshot).
	ErrUnsupported = errors.New("engine: unsupported")
)

// IsStale reports whether err signals an invalidated element or context.
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// IsNotFound reports whether err is a locator miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// staleMessages are CDP error fragments raised when a node or its execution
// context disappeared under a re-render or navigation.
var staleMessages = []string{
	"could not find object with given id",
	"could not find node with given id",
	"no node with given id found",
	"node with given id does not belong to the document",
	"execution context was destroyed",
	"cannot find context with specified id",
}

// classify maps rod and CDP errors onto the engine sentinels. Errors that
// are neither stale nor not-found are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStale) || errors.Is(err, ErrNotFound) {
		return err
	}

	var objErr *rod.ObjectNotFoundError
	if errors.As(err, &objErr) {
		return fmt.Errorf("%w: %w", ErrStale, err)
	}

	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		msg := strings.ToLower(cdpErr.Message)
		for _, m := range staleMessages {
			if strings.Contains(msg, m) {
				return fmt.Errorf("%w: %w", ErrStale, err)
			}
		}
	}

	var nfErr *rod.ElementNotFoundError
	if errors.As(err, &nfErr) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// waitTimedOut distinguishes a local wait budget running out from the
// caller's context ending.
func waitTimedOut(parent context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}
