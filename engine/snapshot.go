package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Snapshot is a static, parsed copy of some HTML. It satisfies Scope for CSS
// locators, which lets the field extractor read a listing card once without
// touching the live DOM again. cascadia's :contains() pseudo-class is
// available here even though browsers reject it.
type Snapshot struct {
	root *goquery.Selection
}

// NewSnapshot parses html.
func NewSnapshot(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("engine: parse snapshot: %w", err)
	}
	return &Snapshot{root: doc.Selection}, nil
}

func (s *Snapshot) Find(ctx context.Context, loc Locator) ([]Element, error) {
	return findStatic(s.root, loc)
}

// Wait makes a single attempt: a snapshot never changes.
func (s *Snapshot) Wait(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return Poll(ctx, loc, 0, func(ctx context.Context) ([]Element, error) {
		return s.Find(ctx, loc)
	}, nil)
}

func (s *Snapshot) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return s.Wait(ctx, loc, timeout)
}

func findStatic(sel *goquery.Selection, loc Locator) ([]Element, error) {
	if loc.By != ByCSS {
		return nil, fmt.Errorf("%w: %s in snapshot", ErrUnsupported, loc)
	}
	m, err := cascadia.Compile(loc.Expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupported, loc, err)
	}
	found := sel.FindMatcher(m)
	out := make([]Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &snapshotElement{sel: s})
	})
	return out, nil
}

// snapshotElement is a node of a Snapshot. It can be read but not clicked.
type snapshotElement struct {
	sel *goquery.Selection
}

func (e *snapshotElement) Find(ctx context.Context, loc Locator) ([]Element, error) {
	return findStatic(e.sel, loc)
}

func (e *snapshotElement) Wait(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return Poll(ctx, loc, 0, func(ctx context.Context) ([]Element, error) {
		return e.Find(ctx, loc)
	}, nil)
}

func (e *snapshotElement) WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Element, error) {
	return e.Wait(ctx, loc, timeout)
}

// Text collapses runs of whitespace the way rendered text would.
func (e *snapshotElement) Text(ctx context.Context) (string, error) {
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *snapshotElement) Attribute(ctx context.Context, name string) (string, error) {
	v, _ := e.sel.Attr(name)
	return v, nil
}

func (e *snapshotElement) Property(ctx context.Context, name string) (string, error) {
	return e.Attribute(ctx, name)
}

func (e *snapshotElement) HTML(ctx context.Context) (string, error) {
	return goquery.OuterHtml(e.sel)
}

func (e *snapshotElement) Click(ctx context.Context) error {
	return fmt.Errorf("%w: click on snapshot", ErrUnsupported)
}

func (e *snapshotElement) ScriptClick(ctx context.Context) error {
	return fmt.Errorf("%w: click on snapshot", ErrUnsupported)
}

func (e *snapshotElement) Eval(ctx context.Context, js string) (string, error) {
	return "", fmt.Errorf("%w: script on snapshot", ErrUnsupported)
}
