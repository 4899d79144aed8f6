// Package engine is the browser abstraction the extraction pipeline is
// written against. A Session owns one or more Pages (browser tabs); Pages and
// Elements are both Scopes that can be searched with a Locator.
//
// Element handles go stale when the page re-renders, so callers are expected
// to re-query by locator and index instead of holding on to elements across
// navigations.
package engine

import (
	"context"
	"fmt"
	"time"
)

// By selects the query language of a Locator.
type By int

const (
	ByXPath By = iota
	ByCSS
)

func (b By) String() string {
	switch b {
	case ByXPath:
		return "xpath"
	case ByCSS:
		return "css"
	default:
		return fmt.Sprintf("by(%d)", int(b))
	}
}

// Locator is a single query expression.
type Locator struct {
	By   By
	Expr string
}

// XPath returns an XPath locator.
func XPath(expr string) Locator { return Locator{By: ByXPath, Expr: expr} }

// CSS returns a CSS selector locator.
func CSS(expr string) Locator { return Locator{By: ByCSS, Expr: expr} }

func (l Locator) String() string { return l.By.String() + ":" + l.Expr }

// Scope is anything elements can be looked up in: a page or an element.
type Scope interface {
	// Find returns every element currently matching loc, without waiting.
	// An empty result is not an error.
	Find(ctx context.Context, loc Locator) ([]Element, error)

	// Wait polls until at least one element matches loc and returns the
	// first one, or ErrNotFound once timeout elapses.
	Wait(ctx context.Context, loc Locator, timeout time.Duration) (Element, error)

	// WaitClickable is like Wait but also requires the element to be
	// visible and enabled.
	WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error)
}

// Element is a handle to one DOM node.
type Element interface {
	Scope

	// Text returns the rendered text of the element.
	Text(ctx context.Context) (string, error)

	// Attribute returns the attribute value, or "" when it is absent.
	Attribute(ctx context.Context, name string) (string, error)

	// Property returns a DOM property as a string, or "" when it is unset.
	Property(ctx context.Context, name string) (string, error)

	// HTML returns the element's outer HTML.
	HTML(ctx context.Context) (string, error)

	// Click performs a native mouse click.
	Click(ctx context.Context) error

	// ScriptClick invokes the element's click() from script, which also
	// works on controls covered by overlays.
	ScriptClick(ctx context.Context) error

	// Eval runs a JS function with `this` bound to the element and returns
	// its result as a string.
	Eval(ctx context.Context, js string) (string, error)
}

// Page is one browser tab.
type Page interface {
	Scope

	// ID is stable for the lifetime of the tab.
	ID() string

	// URL returns the address currently loaded.
	URL(ctx context.Context) (string, error)

	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error

	// WaitStable waits up to d for the DOM to stop changing.
	WaitStable(ctx context.Context, d time.Duration) error

	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)

	Activate(ctx context.Context) error
	Close(ctx context.Context) error
}

// Session is a browser with a notion of the current tab. Only the entry
// navigator opens, switches or closes tabs.
type Session interface {
	// Current returns the tab all listing work happens in.
	Current() Page

	// Pages lists every open tab.
	Pages(ctx context.Context) ([]Page, error)

	// SwitchTo makes p the current tab.
	SwitchTo(ctx context.Context, p Page) error

	Close() error
}
